package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads audit rows from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// TimelineWindow returns a window of audit rows, newest first, with the
// actor's email joined in for display.
func (r *PGRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conditions = append(conditions, strings.Replace(cond, "?", placeholder(len(args)), 1))
	}
	if !filters.From.IsZero() {
		add("a.occurred_at >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		add("a.occurred_at <= ?", filters.To)
	}
	if filters.ActorID != 0 {
		add("a.actor_id = ?", filters.ActorID)
	}
	if entity := strings.TrimSpace(filters.Entity); entity != "" {
		add("a.entity = ?", entity)
	}
	if action := strings.TrimSpace(filters.Action); action != "" {
		add("a.action = ?", action)
	}

	query := `SELECT a.occurred_at, a.actor_id, COALESCE(u.email, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id`
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += "\nORDER BY a.occurred_at DESC, a.id DESC\nLIMIT " + placeholder(len(args))
	args = append(args, offset)
	query += " OFFSET " + placeholder(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var (
			row      TimelineRow
			metaJSON []byte
		)
		if err := rows.Scan(&row.At, &row.ActorID, &row.ActorEmail, &row.Action, &row.Entity, &row.EntityID, &metaJSON); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &row.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

var _ Repository = (*PGRepository)(nil)

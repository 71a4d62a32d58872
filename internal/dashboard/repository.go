package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository exposes the aggregate queries behind each dashboard.
type Repository interface {
	SalesOverview(ctx context.Context, from, to time.Time) (SalesOverview, error)
	MarketingOverview(ctx context.Context, from, to time.Time) (MarketingOverview, error)
	OpsOverview(ctx context.Context, from, to time.Time) (OpsOverview, error)
	FinanceOverview(ctx context.Context, from, to time.Time) (FinanceOverview, error)
}

// PGRepository runs the dashboard aggregates against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// SalesOverview aggregates deals and leads for the window.
func (r *PGRepository) SalesOverview(ctx context.Context, from, to time.Time) (SalesOverview, error) {
	var overview SalesOverview
	err := r.pool.QueryRow(ctx, `SELECT
	COALESCE(SUM(value) FILTER (WHERE status = 'won'), 0),
	COUNT(*) FILTER (WHERE status = 'won'),
	COUNT(*) FILTER (WHERE status = 'lost')
FROM deals
WHERE closed_at >= $1 AND closed_at < $2`, from, to).
		Scan(&overview.Revenue, &overview.DealsWon, &overview.DealsLost)
	if err != nil {
		return SalesOverview{}, err
	}

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE created_at >= $1 AND created_at < $2`, from, to).
		Scan(&overview.NewLeads)
	if err != nil {
		return SalesOverview{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT stage, COUNT(*), COALESCE(SUM(value), 0)
FROM deals
WHERE status = 'open'
GROUP BY stage
ORDER BY MIN(stage_order)`)
	if err != nil {
		return SalesOverview{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var stage PipelineStage
		if err := rows.Scan(&stage.Stage, &stage.Count, &stage.Value); err != nil {
			return SalesOverview{}, err
		}
		overview.Pipeline = append(overview.Pipeline, stage)
	}
	if err := rows.Err(); err != nil {
		return SalesOverview{}, err
	}

	err = r.pool.QueryRow(ctx, `SELECT COALESCE(loss_reason, '')
FROM deals
WHERE status = 'lost' AND closed_at >= $1 AND closed_at < $2 AND loss_reason IS NOT NULL
GROUP BY loss_reason
ORDER BY COUNT(*) DESC
LIMIT 1`, from, to).Scan(&overview.TopLossReason)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return SalesOverview{}, err
	}
	return overview, nil
}

// MarketingOverview aggregates channel acquisition and campaign activity.
func (r *PGRepository) MarketingOverview(ctx context.Context, from, to time.Time) (MarketingOverview, error) {
	var overview MarketingOverview
	rows, err := r.pool.Query(ctx, `SELECT COALESCE(channel, 'unknown'), COUNT(*)
FROM leads
WHERE created_at >= $1 AND created_at < $2
GROUP BY channel
ORDER BY COUNT(*) DESC`, from, to)
	if err != nil {
		return MarketingOverview{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var entry ChannelLeads
		if err := rows.Scan(&entry.Channel, &entry.Leads); err != nil {
			return MarketingOverview{}, err
		}
		overview.LeadsByChannel = append(overview.LeadsByChannel, entry)
	}
	if err := rows.Err(); err != nil {
		return MarketingOverview{}, err
	}

	err = r.pool.QueryRow(ctx, `SELECT
	COALESCE((SELECT SUM(spend) FROM campaigns WHERE started_at < $2 AND (ended_at IS NULL OR ended_at >= $1)), 0),
	(SELECT COUNT(*) FROM content_pieces WHERE published_at >= $1 AND published_at < $2),
	(SELECT COUNT(*) FROM offline_events WHERE held_at >= $1 AND held_at < $2)`, from, to).
		Scan(&overview.CampaignSpend, &overview.ContentPieces, &overview.OfflineEvents)
	if err != nil {
		return MarketingOverview{}, err
	}
	return overview, nil
}

// OpsOverview aggregates ticket flow for the window.
func (r *PGRepository) OpsOverview(ctx context.Context, from, to time.Time) (OpsOverview, error) {
	var overview OpsOverview
	err := r.pool.QueryRow(ctx, `SELECT
	COUNT(*) FILTER (WHERE status = 'open'),
	COUNT(*) FILTER (WHERE status = 'closed' AND closed_at >= $1 AND closed_at < $2),
	COUNT(*) FILTER (WHERE sla_breached AND created_at >= $1 AND created_at < $2),
	COALESCE(AVG(EXTRACT(EPOCH FROM closed_at - created_at) / 3600) FILTER (WHERE status = 'closed' AND closed_at >= $1 AND closed_at < $2), 0)
FROM tickets`, from, to).
		Scan(&overview.OpenTickets, &overview.ClosedTickets, &overview.SLABreaches, &overview.AvgResolution)
	if err != nil {
		return OpsOverview{}, err
	}
	return overview, nil
}

// FinanceOverview aggregates invoices and expenses for the window.
func (r *PGRepository) FinanceOverview(ctx context.Context, from, to time.Time) (FinanceOverview, error) {
	var overview FinanceOverview
	err := r.pool.QueryRow(ctx, `SELECT
	COALESCE((SELECT SUM(amount) FROM invoices WHERE status = 'paid' AND paid_at >= $1 AND paid_at < $2), 0),
	COALESCE((SELECT SUM(amount) FROM expenses WHERE spent_at >= $1 AND spent_at < $2), 0),
	COALESCE((SELECT SUM(amount) FROM invoices WHERE status = 'outstanding'), 0)`, from, to).
		Scan(&overview.Revenue, &overview.Expenses, &overview.Outstanding)
	if err != nil {
		return FinanceOverview{}, err
	}
	overview.NetIncome = overview.Revenue - overview.Expenses
	return overview, nil
}

var _ Repository = (*PGRepository)(nil)

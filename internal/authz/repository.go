package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pijar-hq/pijar/internal/shared"
)

// ErrProfileExists is returned by CreateProfile when another request
// provisioned the profile first. Callers re-read instead of failing.
var ErrProfileExists = errors.New("authz: profile already exists")

const uniqueViolation = "23505"

// Repository defines the reads and the single provisioning write the
// authorization core performs.
type Repository interface {
	// FindUser resolves a principal id to the identity record.
	FindUser(ctx context.Context, id int64) (*Principal, error)
	// GetProfile reads a profile with its role name joined in.
	GetProfile(ctx context.Context, id int64) (*Profile, error)
	// CreateProfile inserts a profile row. Returns ErrProfileExists on a
	// concurrent-provision conflict.
	CreateProfile(ctx context.Context, id int64, fullName *string, roleID *int64) error
	// FindRoleIDByName resolves a role name, shared.ErrNotFound when absent.
	FindRoleIDByName(ctx context.Context, name string) (int64, error)
	// RolePermissionNames lists granted permission names for a role.
	// Dangling role_permissions rows are excluded by the join.
	RolePermissionNames(ctx context.Context, roleID int64) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindUser fetches the identity record for a principal id.
func (r *PGRepository) FindUser(ctx context.Context, id int64) (*Principal, error) {
	var p Principal
	err := r.pool.QueryRow(ctx, `SELECT id, email FROM users WHERE id = $1`, id).Scan(&p.ID, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetProfile reads one profile with its role name joined in.
func (r *PGRepository) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.full_name, p.avatar_url, p.role_id, r.name, p.is_active, p.created_at, p.updated_at
		FROM profiles p
		LEFT JOIN roles r ON r.id = p.role_id
		WHERE p.id = $1`, id,
	).Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.RoleID, &p.RoleName, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a profile row with is_active defaulted to true.
func (r *PGRepository) CreateProfile(ctx context.Context, id int64, fullName *string, roleID *int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, full_name, role_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())`, id, fullName, roleID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

// FindRoleIDByName resolves a role id by its unique name.
func (r *PGRepository) FindRoleIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

// RolePermissionNames lists the permission names granted to a role.
func (r *PGRepository) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pe.name
		FROM role_permissions rp
		JOIN permissions pe ON pe.id = rp.permission_id
		WHERE rp.role_id = $1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

var _ Repository = (*PGRepository)(nil)

package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pijar-hq/pijar/internal/platform/httpx"
)

// RepositoryPort defines data access methods for user administration.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	AssignRole(ctx context.Context, userID int64, roleID *int64) error
	SetActive(ctx context.Context, userID int64, active bool) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.email, p.full_name, p.role_id, r.name, p.is_active, u.created_at, u.updated_at`

// ListUsers returns all users with their profile and role.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+`
FROM users u
JOIN profiles p ON p.id = u.id
LEFT JOIN roles r ON r.id = p.role_id
ORDER BY u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.RoleID, &user.RoleName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one user with profile by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+`
FROM users u
JOIN profiles p ON p.id = u.id
LEFT JOIN roles r ON r.id = p.role_id
WHERE u.id = $1`, id).
		Scan(&user.ID, &user.Email, &user.FullName, &user.RoleID, &user.RoleName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, httpx.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// AssignRole sets or clears the role on a user's profile.
func (r *Repository) AssignRole(ctx context.Context, userID int64, roleID *int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET role_id = $2, updated_at = NOW() WHERE id = $1`, userID, roleID)
	if err != nil {
		if constraintViolated(err, "profiles_role_id_fkey") {
			return httpx.ErrValidation
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// SetActive flips the activation flag on a user's profile.
func (r *Repository) SetActive(ctx context.Context, userID int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET is_active = $2, updated_at = NOW() WHERE id = $1`, userID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// constraintViolated reports whether err is a PostgreSQL error raised by the
// named constraint.
func constraintViolated(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == constraint
}

var _ RepositoryPort = (*Repository)(nil)

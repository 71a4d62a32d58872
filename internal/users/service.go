package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pijar-hq/pijar/internal/authz"
	"github.com/pijar-hq/pijar/internal/platform/httpx"
	"github.com/pijar-hq/pijar/internal/shared"
)

// AuditRecorder appends audit records for admin mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user administration logic.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	audit  AuditRecorder
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{logger: logger, repo: repo, audit: audit}
}

// ListUsers returns all users with their profiles.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user with profile.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// AssignRole sets or clears a user's role and records an audit entry. The
// change takes effect on the target's next request, there is no session
// invalidation.
func (s *Service) AssignRole(ctx context.Context, actor *authz.Actor, userID int64, roleID *int64) (User, error) {
	if actor == nil || !actor.Can(authz.PermManageUsers) {
		return User{}, httpx.ErrForbidden
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			return User{}, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
		}
		return User{}, err
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	meta := map[string]any{"role_id": nil}
	if roleID != nil {
		meta["role_id"] = *roleID
	}
	if user.RoleName != nil {
		meta["role_name"] = *user.RoleName
	}
	s.recordAudit(ctx, actor, "user.role.assign", userID, meta)
	return user, nil
}

// SetActive toggles a user's activation flag. Self-deactivation is refused
// so an admin cannot lock themselves out. Deactivation takes effect on the
// target's next request.
func (s *Service) SetActive(ctx context.Context, actor *authz.Actor, userID int64, active bool) (User, error) {
	if actor == nil || !actor.Can(authz.PermManageUsers) {
		return User{}, httpx.ErrForbidden
	}
	if !active && actor.Principal.ID == userID {
		return User{}, fmt.Errorf("%w: cannot deactivate own account", httpx.ErrValidation)
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return User{}, err
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	s.recordAudit(ctx, actor, action, userID, map[string]any{"is_active": active})
	return user, nil
}

func (s *Service) recordAudit(ctx context.Context, actor *authz.Actor, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.Profile.ID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("record audit", slog.String("action", action), slog.Any("error", err))
	}
}

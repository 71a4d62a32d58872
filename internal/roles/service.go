package roles

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/pijar-hq/pijar/internal/authz"
	"github.com/pijar-hq/pijar/internal/platform/httpx"
	"github.com/pijar-hq/pijar/internal/shared"
)

// AuditRecorder appends audit records for admin mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles role business logic. Mutations re-check the actor's
// permission even though routes are already gated, so a misconfigured mount
// cannot silently skip the check.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	audit    AuditRecorder
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		audit:    audit,
		validate: validator.New(),
	}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns one role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates input, inserts the role and records an audit entry.
func (s *Service) CreateRole(ctx context.Context, actor *authz.Actor, in RoleInput) (Role, error) {
	if actor == nil || !actor.Can(authz.PermManageRoles) {
		return Role{}, httpx.ErrForbidden
	}
	if err := s.validate.Struct(in); err != nil {
		return Role{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	role, err := s.repo.CreateRole(ctx, in)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, actor, "role.create", role.ID, map[string]any{
		"name":       role.Name,
		"is_manager": role.IsManager,
	})
	return role, nil
}

// UpdateRole validates input, updates the role and records an audit entry.
func (s *Service) UpdateRole(ctx context.Context, actor *authz.Actor, id int64, in RoleInput) (Role, error) {
	if actor == nil || !actor.Can(authz.PermManageRoles) {
		return Role{}, httpx.ErrForbidden
	}
	if err := s.validate.Struct(in); err != nil {
		return Role{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	role, err := s.repo.UpdateRole(ctx, id, in)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, actor, "role.update", role.ID, map[string]any{
		"name":       role.Name,
		"is_manager": role.IsManager,
	})
	return role, nil
}

// ListPermissions returns the permission catalogue.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// RolePermissions returns the permissions currently attached to a role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListRolePermissions(ctx, roleID)
}

// ReplacePermissions swaps the complete permission set of a role with the
// given permission IDs. Duplicates in the input collapse, an empty input
// leaves the role with no permissions. The resulting set is returned and an
// audit entry with the full resulting ID list is recorded. Concurrent
// replaces resolve to whichever transaction commits last.
func (s *Service) ReplacePermissions(ctx context.Context, actor *authz.Actor, roleID int64, permissionIDs []int64) ([]Permission, error) {
	if actor == nil || !actor.CanAll(authz.PermManageRoles, authz.PermManagePermissions) {
		return nil, httpx.ErrForbidden
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}

	ids := dedupeIDs(permissionIDs)
	if err := s.repo.ReplacePermissions(ctx, roleID, ids); err != nil {
		return nil, err
	}

	perms, err := s.repo.ListRolePermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}
	resulting := make([]int64, 0, len(perms))
	for _, p := range perms {
		resulting = append(resulting, p.ID)
	}
	s.recordAudit(ctx, actor, "role.permissions.replace", roleID, map[string]any{
		"permission_ids": resulting,
	})
	return perms, nil
}

// recordAudit writes best-effort after the mutation has committed. A failed
// audit write is logged and never rolls back the mutation.
func (s *Service) recordAudit(ctx context.Context, actor *authz.Actor, action string, roleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.Profile.ID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("record audit", slog.String("action", action), slog.Any("error", err))
	}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

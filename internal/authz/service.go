package authz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pijar-hq/pijar/internal/shared"
)

// DefaultRoleName is the role assigned to auto-provisioned profiles when no
// override is configured. Matches the seed data.
const DefaultRoleName = "salesperson"

// Service resolves the current actor for a request. Resolution is stateless
// and re-executed from scratch on every request; permission and role changes
// take effect immediately.
type Service struct {
	repo        Repository
	defaultRole string
}

// NewService constructs a Service. An empty defaultRole falls back to
// DefaultRoleName.
func NewService(repo Repository, defaultRole string) *Service {
	if strings.TrimSpace(defaultRole) == "" {
		defaultRole = DefaultRoleName
	}
	return &Service{repo: repo, defaultRole: defaultRole}
}

// ResolvePrincipal obtains the authenticated principal for the session.
// Absence of a principal is reported as (nil, nil), never as an error;
// a store failure is ErrBackendUnavailable.
func (s *Service) ResolvePrincipal(ctx context.Context, sess *shared.Session) (*Principal, error) {
	if sess == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, nil
	}
	principal, err := s.repo.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: find user: %v", ErrBackendUnavailable, err)
	}
	return principal, nil
}

// ResolveActor composes principal, profile and permission resolution into
// one strictly ordered, short-circuiting call.
//
// Returns ErrUnauthenticated when there is no principal or the principal has
// no usable profile (missing after provisioning, or deactivated), and
// ErrBackendUnavailable when any step fails against the store. A fully
// resolved Actor may legitimately carry an empty permission set.
func (s *Service) ResolveActor(ctx context.Context, sess *shared.Session) (*Actor, error) {
	principal, err := s.ResolvePrincipal(ctx, sess)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	profile, err := s.loadProfile(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		// Deactivated accounts fail closed and stay indistinguishable
		// from never-logged-in.
		return nil, ErrUnauthenticated
	}

	permissions, err := s.resolvePermissions(ctx, profile.RoleID)
	if err != nil {
		return nil, err
	}

	return NewActor(*principal, *profile, permissions), nil
}

// loadProfile reads the principal's profile, auto-provisioning one with the
// default role on first contact. Provisioning is an explicit two-step
// get-or-create: read, insert on miss, re-read when a concurrent request
// won the insert race.
func (s *Service) loadProfile(ctx context.Context, principal *Principal) (*Profile, error) {
	profile, err := s.repo.GetProfile(ctx, principal.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: read profile: %v", ErrBackendUnavailable, err)
	}

	var roleID *int64
	defaultID, err := s.repo.FindRoleIDByName(ctx, s.defaultRole)
	switch {
	case err == nil:
		roleID = &defaultID
	case errors.Is(err, shared.ErrNotFound):
		// Default role not seeded: provision with no role, which yields
		// zero permissions downstream.
	default:
		return nil, fmt.Errorf("%w: resolve default role: %v", ErrBackendUnavailable, err)
	}

	fullName := displayNameFromEmail(principal.Email)
	if err := s.repo.CreateProfile(ctx, principal.ID, fullName, roleID); err != nil && !errors.Is(err, ErrProfileExists) {
		return nil, fmt.Errorf("%w: provision profile: %v", ErrBackendUnavailable, err)
	}

	profile, err = s.repo.GetProfile(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: re-read profile: %v", ErrBackendUnavailable, err)
	}
	return profile, nil
}

// resolvePermissions flattens a role to its granted permission names.
// A nil role id yields the empty set; there are no implicit defaults.
func (s *Service) resolvePermissions(ctx context.Context, roleID *int64) ([]string, error) {
	if roleID == nil {
		return nil, nil
	}
	names, err := s.repo.RolePermissionNames(ctx, *roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: read role permissions: %v", ErrBackendUnavailable, err)
	}
	return names, nil
}

func displayNameFromEmail(email string) *string {
	if email == "" {
		return nil
	}
	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	return &name
}

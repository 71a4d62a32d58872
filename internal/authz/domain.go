package authz

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrUnauthenticated covers both "no valid principal" and "principal
	// maps to no usable profile". A deactivated account is deliberately
	// indistinguishable from one that never logged in.
	ErrUnauthenticated = errors.New("authz: unauthenticated")
	// ErrForbidden indicates an authenticated actor lacking a required permission.
	ErrForbidden = errors.New("authz: forbidden")
	// ErrBackendUnavailable indicates the session provider or store failed.
	// Never reinterpreted as ErrUnauthenticated.
	ErrBackendUnavailable = errors.New("authz: backend unavailable")
)

// Principal is the externally authenticated identity for the current request.
type Principal struct {
	ID    int64
	Email string
}

// Profile extends a principal with display data, role and active status.
type Profile struct {
	ID        int64
	FullName  *string
	AvatarURL *string
	RoleID    *int64
	RoleName  *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor is the fully resolved identity used to authorize an operation.
// Its permission set is immutable after resolution.
type Actor struct {
	Principal Principal
	Profile   Profile
	granted   map[string]struct{}
}

// NewActor builds an Actor with the given permission names. Duplicates collapse.
func NewActor(principal Principal, profile Profile, permissions []string) *Actor {
	granted := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		if p == "" {
			continue
		}
		granted[p] = struct{}{}
	}
	return &Actor{Principal: principal, Profile: profile, granted: granted}
}

// Can reports whether the actor holds the named permission. Pure set
// membership: no I/O, safe to call repeatedly per render.
func (a *Actor) Can(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.granted[name]
	return ok
}

// CanAll reports whether the actor holds every named permission.
func (a *Actor) CanAll(names ...string) bool {
	for _, name := range names {
		if !a.Can(name) {
			return false
		}
	}
	return true
}

// Permissions returns the granted permission names, sorted.
func (a *Actor) Permissions() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.granted))
	for name := range a.granted {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

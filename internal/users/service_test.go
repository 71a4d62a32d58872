package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pijar-hq/pijar/internal/authz"
	"github.com/pijar-hq/pijar/internal/platform/httpx"
	"github.com/pijar-hq/pijar/internal/shared"
	_ "github.com/pijar-hq/pijar/testing"
)

type stubRepo struct {
	users map[int64]User
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[int64]User)}
}

func (s *stubRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *stubRepo) GetUser(ctx context.Context, id int64) (User, error) {
	user, ok := s.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) AssignRole(ctx context.Context, userID int64, roleID *int64) error {
	user, ok := s.users[userID]
	if !ok {
		return httpx.ErrNotFound
	}
	user.RoleID = roleID
	s.users[userID] = user
	return nil
}

func (s *stubRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	user, ok := s.users[userID]
	if !ok {
		return httpx.ErrNotFound
	}
	user.IsActive = active
	s.users[userID] = user
	return nil
}

type stubAudit struct {
	logs []shared.AuditLog
}

func (s *stubAudit) Record(ctx context.Context, log shared.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func adminActor() *authz.Actor {
	return authz.NewActor(
		authz.Principal{ID: 1, Email: "admin@pijar.test"},
		authz.Profile{ID: 1, IsActive: true},
		[]string{authz.PermManageUsers},
	)
}

func newTestService(repo RepositoryPort, audit AuditRecorder) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, audit)
}

func TestAssignRoleRecordsAudit(t *testing.T) {
	repo := newStubRepo()
	repo.users[7] = User{ID: 7, Email: "sales@pijar.test", IsActive: true}
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	roleID := int64(3)
	user, err := svc.AssignRole(context.Background(), adminActor(), 7, &roleID)
	require.NoError(t, err)
	require.NotNil(t, user.RoleID)
	assert.Equal(t, int64(3), *user.RoleID)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "user.role.assign", audit.logs[0].Action)
	assert.Equal(t, "7", audit.logs[0].EntityID)
}

func TestAssignRoleClearsRole(t *testing.T) {
	roleID := int64(3)
	repo := newStubRepo()
	repo.users[7] = User{ID: 7, Email: "sales@pijar.test", RoleID: &roleID, IsActive: true}
	svc := newTestService(repo, &stubAudit{})

	user, err := svc.AssignRole(context.Background(), adminActor(), 7, nil)
	require.NoError(t, err)
	assert.Nil(t, user.RoleID)
}

func TestAssignRoleRequiresManageUsers(t *testing.T) {
	repo := newStubRepo()
	repo.users[7] = User{ID: 7, IsActive: true}
	svc := newTestService(repo, &stubAudit{})

	viewer := authz.NewActor(
		authz.Principal{ID: 2, Email: "viewer@pijar.test"},
		authz.Profile{ID: 2, IsActive: true},
		[]string{authz.PermReadUsers},
	)
	roleID := int64(3)
	_, err := svc.AssignRole(context.Background(), viewer, 7, &roleID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestDeactivateRecordsAudit(t *testing.T) {
	repo := newStubRepo()
	repo.users[7] = User{ID: 7, Email: "sales@pijar.test", IsActive: true}
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	user, err := svc.SetActive(context.Background(), adminActor(), 7, false)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "user.deactivate", audit.logs[0].Action)
}

func TestSelfDeactivationRefused(t *testing.T) {
	repo := newStubRepo()
	repo.users[1] = User{ID: 1, Email: "admin@pijar.test", IsActive: true}
	svc := newTestService(repo, &stubAudit{})

	_, err := svc.SetActive(context.Background(), adminActor(), 1, false)
	require.ErrorIs(t, err, httpx.ErrValidation)

	user, err := svc.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, user.IsActive)
}

func TestSetActiveUnknownUser(t *testing.T) {
	svc := newTestService(newStubRepo(), &stubAudit{})

	_, err := svc.SetActive(context.Background(), adminActor(), 42, true)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

package roles

import (
	"context"
	"errors"
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
	roles       map[int64]Role
	catalogue   []Permission
	granted     map[int64][]Permission
	replaced    map[int64][]int64
	createErr   error
	replaceErr  error
	createCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		roles:    make(map[int64]Role),
		granted:  make(map[int64][]Permission),
		replaced: make(map[int64][]int64),
	}
}

func (s *stubRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	return out, nil
}

func (s *stubRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return Role{}, httpx.ErrNotFound
	}
	return role, nil
}

func (s *stubRepo) CreateRole(ctx context.Context, in RoleInput) (Role, error) {
	s.createCalls++
	if s.createErr != nil {
		return Role{}, s.createErr
	}
	role := Role{ID: int64(len(s.roles) + 1), Name: in.Name, Description: in.Description, IsManager: in.IsManager}
	s.roles[role.ID] = role
	return role, nil
}

func (s *stubRepo) UpdateRole(ctx context.Context, id int64, in RoleInput) (Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return Role{}, httpx.ErrNotFound
	}
	role.Name = in.Name
	role.Description = in.Description
	role.IsManager = in.IsManager
	s.roles[id] = role
	return role, nil
}

func (s *stubRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.catalogue, nil
}

func (s *stubRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.granted[roleID], nil
}

func (s *stubRepo) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced[roleID] = permissionIDs
	byID := make(map[int64]Permission, len(s.catalogue))
	for _, p := range s.catalogue {
		byID[p.ID] = p
	}
	var perms []Permission
	for _, id := range permissionIDs {
		if p, ok := byID[id]; ok {
			perms = append(perms, p)
		}
	}
	s.granted[roleID] = perms
	return nil
}

type stubAudit struct {
	logs []shared.AuditLog
	err  error
}

func (s *stubAudit) Record(ctx context.Context, log shared.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, log)
	return nil
}

func adminActor() *authz.Actor {
	return authz.NewActor(
		authz.Principal{ID: 1, Email: "admin@pijar.test"},
		authz.Profile{ID: 1, IsActive: true},
		[]string{authz.PermManageRoles, authz.PermManagePermissions},
	)
}

func viewerActor() *authz.Actor {
	return authz.NewActor(
		authz.Principal{ID: 2, Email: "viewer@pijar.test"},
		authz.Profile{ID: 2, IsActive: true},
		[]string{authz.PermReadRoles},
	)
}

func newTestService(repo RepositoryPort, audit AuditRecorder) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, audit)
}

func TestCreateRoleRecordsAudit(t *testing.T) {
	repo := newStubRepo()
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	role, err := svc.CreateRole(context.Background(), adminActor(), RoleInput{Name: "analyst", Description: "Data analyst"})
	require.NoError(t, err)
	assert.Equal(t, "analyst", role.Name)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "role.create", audit.logs[0].Action)
	assert.Equal(t, "role", audit.logs[0].Entity)
	assert.Equal(t, int64(1), audit.logs[0].ActorID)
}

func TestCreateRoleRequiresManageRoles(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	_, err := svc.CreateRole(context.Background(), viewerActor(), RoleInput{Name: "analyst"})
	require.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Zero(t, repo.createCalls)

	_, err = svc.CreateRole(context.Background(), nil, RoleInput{Name: "analyst"})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateRoleValidatesInput(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	_, err := svc.CreateRole(context.Background(), adminActor(), RoleInput{Name: ""})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Zero(t, repo.createCalls)
}

func TestCreateRoleDuplicatePassesThrough(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = httpx.ErrDuplicate
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	_, err := svc.CreateRole(context.Background(), adminActor(), RoleInput{Name: "analyst"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.Empty(t, audit.logs)
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	repo := newStubRepo()
	audit := &stubAudit{err: errors.New("audit store down")}
	svc := newTestService(repo, audit)

	_, err := svc.CreateRole(context.Background(), adminActor(), RoleInput{Name: "analyst"})
	require.NoError(t, err)
}

func TestUpdateRoleRecordsAudit(t *testing.T) {
	repo := newStubRepo()
	repo.roles[5] = Role{ID: 5, Name: "ops"}
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	role, err := svc.UpdateRole(context.Background(), adminActor(), 5, RoleInput{Name: "operations", IsManager: true})
	require.NoError(t, err)
	assert.Equal(t, "operations", role.Name)
	assert.True(t, role.IsManager)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "role.update", audit.logs[0].Action)
	assert.Equal(t, "5", audit.logs[0].EntityID)
}

func TestReplacePermissionsDedupsAndSorts(t *testing.T) {
	repo := newStubRepo()
	repo.roles[3] = Role{ID: 3, Name: "marketing"}
	repo.catalogue = []Permission{
		{ID: 1, Name: "read_marketing_data"},
		{ID: 2, Name: "manage_marketing_kpi"},
		{ID: 4, Name: "manage_seo_sem"},
	}
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	perms, err := svc.ReplacePermissions(context.Background(), adminActor(), 3, []int64{4, 1, 4, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4}, repo.replaced[3])
	assert.Len(t, perms, 3)
}

func TestReplacePermissionsEmptyClearsAll(t *testing.T) {
	repo := newStubRepo()
	repo.roles[3] = Role{ID: 3, Name: "marketing"}
	repo.granted[3] = []Permission{{ID: 1, Name: "read_marketing_data"}}
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	perms, err := svc.ReplacePermissions(context.Background(), adminActor(), 3, nil)
	require.NoError(t, err)
	assert.Empty(t, perms)
	assert.Empty(t, repo.replaced[3])

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "role.permissions.replace", audit.logs[0].Action)
	ids, ok := audit.logs[0].Meta["permission_ids"].([]int64)
	require.True(t, ok)
	assert.Empty(t, ids)
}

func TestReplacePermissionsAuditsResultingSet(t *testing.T) {
	repo := newStubRepo()
	repo.roles[3] = Role{ID: 3, Name: "marketing"}
	repo.catalogue = []Permission{
		{ID: 1, Name: "read_marketing_data"},
		{ID: 2, Name: "manage_marketing_kpi"},
	}
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	_, err := svc.ReplacePermissions(context.Background(), adminActor(), 3, []int64{2, 1})
	require.NoError(t, err)

	require.Len(t, audit.logs, 1)
	ids, ok := audit.logs[0].Meta["permission_ids"].([]int64)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestReplacePermissionsUnknownRole(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	_, err := svc.ReplacePermissions(context.Background(), adminActor(), 99, []int64{1})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestReplacePermissionsRequiresBothManageGrants(t *testing.T) {
	cases := []struct {
		name  string
		perms []string
	}{
		{"no grants", []string{authz.PermReadRoles}},
		{"only manage_roles", []string{authz.PermManageRoles}},
		{"only manage_permissions", []string{authz.PermManagePermissions}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubRepo()
			repo.roles[3] = Role{ID: 3, Name: "marketing"}
			svc := newTestService(repo, &stubAudit{})

			actor := authz.NewActor(
				authz.Principal{ID: 2, Email: "viewer@pijar.test"},
				authz.Profile{ID: 2, IsActive: true},
				tc.perms,
			)
			_, err := svc.ReplacePermissions(context.Background(), actor, 3, []int64{1})
			require.ErrorIs(t, err, httpx.ErrForbidden)
			assert.Empty(t, repo.replaced)
		})
	}
}

package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pijar-hq/pijar/internal/authz"
	_ "github.com/pijar-hq/pijar/testing"
)

func actorWith(roleName string, perms ...string) *authz.Actor {
	profile := authz.Profile{ID: 1, IsActive: true}
	if roleName != "" {
		profile.RoleName = &roleName
	}
	return authz.NewActor(authz.Principal{ID: 1, Email: "user@pijar.test"}, profile, perms)
}

func TestLandingPathByRole(t *testing.T) {
	cases := []struct {
		role string
		want string
	}{
		{"director", "/app/dashboard/director"},
		{"salesperson", "/app/dashboard/sales"},
		{"marketing", "/app/dashboard/marketing"},
		{"finance", "/app/dashboard/finance"},
		{"admin", "/app/admin/users"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LandingPath(actorWith(tc.role)), "role %s", tc.role)
	}
}

func TestLandingPathFallsBackToPermissions(t *testing.T) {
	actor := actorWith("custom_role", authz.PermReadOpsData)
	assert.Equal(t, "/app/dashboard/ops", LandingPath(actor))
}

func TestLandingPathPrefersDirector(t *testing.T) {
	actor := actorWith("custom_role", authz.PermReadOpsData, authz.PermReadDirectorOverview)
	assert.Equal(t, "/app/dashboard/director", LandingPath(actor))
}

func TestLandingPathNoAccess(t *testing.T) {
	assert.Equal(t, authz.NoAccessPath, LandingPath(actorWith("custom_role")))
}

func TestLandingPathNilActor(t *testing.T) {
	assert.Equal(t, authz.LoginPath, LandingPath(nil))
}

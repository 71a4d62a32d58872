package dashboard

import "github.com/pijar-hq/pijar/internal/authz"

// roleLanding maps role names to their home dashboard.
var roleLanding = map[string]string{
	"director":    "/app/dashboard/director",
	"salesperson": "/app/dashboard/sales",
	"sales_lead":  "/app/dashboard/sales",
	"marketing":   "/app/dashboard/marketing",
	"ops":         "/app/dashboard/ops",
	"finance":     "/app/dashboard/finance",
	"admin":       "/app/admin/users",
}

// permissionLanding lists dashboards in preference order with the permission
// that unlocks each.
var permissionLanding = []struct {
	permission string
	path       string
}{
	{authz.PermReadDirectorOverview, "/app/dashboard/director"},
	{authz.PermReadSalesOverview, "/app/dashboard/sales"},
	{authz.PermReadMarketingData, "/app/dashboard/marketing"},
	{authz.PermReadOpsData, "/app/dashboard/ops"},
	{authz.PermReadFinanceData, "/app/dashboard/finance"},
	{authz.PermManageUsers, "/app/admin/users"},
}

// LandingPath picks the landing route for an actor. The role mapping wins;
// otherwise the first dashboard the actor can read is chosen. Actors that can
// see nothing land on the no-access page.
func LandingPath(actor *authz.Actor) string {
	if actor == nil {
		return authz.LoginPath
	}
	if actor.Profile.RoleName != nil {
		if path, ok := roleLanding[*actor.Profile.RoleName]; ok {
			return path
		}
	}
	for _, entry := range permissionLanding {
		if actor.Can(entry.permission) {
			return entry.path
		}
	}
	return authz.NoAccessPath
}

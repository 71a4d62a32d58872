package authz

import "sort"

// Permission names form a closed catalogue. Every code-level check must use
// these constants; a string that is not listed here is a defect in the
// caller, not a runtime condition. The assignable set is whatever rows exist
// in the permissions table — a registered name without a row is simply
// ungrantable.
const (
	// Governance
	PermReadUsers         = "read_users"
	PermManageUsers       = "manage_users"
	PermReadRoles         = "read_roles"
	PermManageRoles       = "manage_roles"
	PermReadPermissions   = "read_permissions"
	PermManagePermissions = "manage_permissions"

	// Director
	PermReadDirectorOverview = "read_director_overview"

	// Sales
	PermReadSalesOverview = "read_sales_overview"
	PermReadSalesPipeline = "read_sales_pipeline"
	PermReadSalesActivity = "read_sales_activity"
	PermReadSalesReasons  = "read_sales_reasons"
	PermManageSalesLeads  = "manage_sales_leads"

	// Marketing
	PermReadMarketingData    = "read_marketing_data"
	PermManageMarketingKPI   = "manage_marketing_kpi"
	PermManageSeoSem         = "manage_seo_sem"
	PermManageContentPieces  = "manage_content_pieces"
	PermManageOfflineEvents  = "manage_offline_events"

	// Ops
	PermReadOpsData      = "read_ops_data"
	PermManageOpsTickets = "manage_ops_tickets"

	// Finance
	PermReadFinanceData   = "read_finance_data"
	PermManageFinanceData = "manage_finance_data"

	// Master data
	PermManageMasterData = "manage_master_data"

	// Audit
	PermReadAuditLogs = "read_audit_logs"
)

var registry = map[string]string{
	PermReadUsers:            "View user accounts and profiles",
	PermManageUsers:          "Manage user profiles, roles and activation",
	PermReadRoles:            "View roles",
	PermManageRoles:          "Create and update roles",
	PermReadPermissions:      "View the permission catalogue",
	PermManagePermissions:    "Edit role permission assignments",
	PermReadDirectorOverview: "View the director overview",
	PermReadSalesOverview:    "View the sales overview",
	PermReadSalesPipeline:    "View the sales pipeline",
	PermReadSalesActivity:    "View sales activity",
	PermReadSalesReasons:     "View win/loss reasons",
	PermManageSalesLeads:     "Manage sales leads",
	PermReadMarketingData:    "View marketing data",
	PermManageMarketingKPI:   "Manage marketing KPIs",
	PermManageSeoSem:         "Manage SEO/SEM campaigns",
	PermManageContentPieces:  "Manage content pieces",
	PermManageOfflineEvents:  "Manage offline events",
	PermReadOpsData:          "View ops data",
	PermManageOpsTickets:     "Manage ops tickets",
	PermReadFinanceData:      "View finance data",
	PermManageFinanceData:    "Manage finance data",
	PermManageMasterData:     "Manage master data",
	PermReadAuditLogs:        "View audit logs",
}

// Registered returns every permission name in the catalogue, sorted.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name belongs to the catalogue.
func IsRegistered(name string) bool {
	_, ok := registry[name]
	return ok
}

// Describe returns the human description for a registered permission name.
func Describe(name string) string {
	return registry[name]
}

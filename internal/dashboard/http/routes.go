package dashboardhttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/pijar-hq/pijar/internal/authz"
)

// MountAppRoutes registers the dashboard pages under /app.
func (h *Handler) MountAppRoutes(r chi.Router, gate authz.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.Require())
		r.Get("/", h.handleLanding)
		r.Get("/no-access", h.handleNoAccess)
	})
	r.Route("/dashboard", func(r chi.Router) {
		r.With(gate.Require(authz.PermReadSalesOverview)).Get("/sales", h.handleSalesPage)
		r.With(gate.Require(authz.PermReadMarketingData)).Get("/marketing", h.handleMarketingPage)
		r.With(gate.Require(authz.PermReadOpsData)).Get("/ops", h.handleOpsPage)
		r.With(gate.Require(authz.PermReadFinanceData)).Get("/finance", h.handleFinancePage)
		r.With(gate.Require(authz.PermReadDirectorOverview)).Get("/director", h.handleDirectorPage)
	})
}

// MountAPIRoutes registers the dashboard JSON APIs.
func (h *Handler) MountAPIRoutes(r chi.Router, gate authz.Middleware) {
	r.With(gate.Require(authz.PermReadSalesOverview)).Get("/sales", h.handleAPISales)
	r.With(gate.Require(authz.PermReadMarketingData)).Get("/marketing", h.handleAPIMarketing)
	r.With(gate.Require(authz.PermReadOpsData)).Get("/ops", h.handleAPIOps)
	r.With(gate.Require(authz.PermReadFinanceData)).Get("/finance", h.handleAPIFinance)
	r.With(gate.Require(authz.PermReadDirectorOverview)).Get("/director", h.handleAPIDirector)
}

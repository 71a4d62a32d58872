package audithttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/pijar-hq/pijar/internal/authz"
)

// MountRoutes registers the audit timeline page.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(authz.PermReadAuditLogs))
		r.Get("/", h.handleTimeline)
	})
}

// MountAPIRoutes registers the audit timeline API.
func (h *Handler) MountAPIRoutes(r chi.Router, gate authz.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(authz.PermReadAuditLogs))
		r.Get("/", h.handleAPITimeline)
	})
}

package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/pijar-hq/pijar/internal/audit/http"
	"github.com/pijar-hq/pijar/internal/auth"
	"github.com/pijar-hq/pijar/internal/authz"
	dashboardhttp "github.com/pijar-hq/pijar/internal/dashboard/http"
	"github.com/pijar-hq/pijar/internal/observability"
	"github.com/pijar-hq/pijar/internal/roles"
	"github.com/pijar-hq/pijar/internal/shared"
	"github.com/pijar-hq/pijar/internal/users"
	"github.com/pijar-hq/pijar/internal/view"
	"github.com/pijar-hq/pijar/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	MeHandler        *authz.MeHandler
	RolesHandler     *roles.Handler
	UsersHandler     *users.Handler
	AuditHandler     *audithttp.Handler
	DashboardHandler *dashboardhttp.Handler
	Gate             authz.Middleware
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Pijar defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, authz.LoginPath, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/app", http.StatusSeeOther)
	})

	params.AuthHandler.MountRoutes(r)

	r.Route("/app", func(r chi.Router) {
		params.DashboardHandler.MountAppRoutes(r, params.Gate)
		r.Route("/admin/roles", params.RolesHandler.MountRoutes)
		r.Route("/admin/users", params.UsersHandler.MountRoutes)
		r.Route("/audit", func(r chi.Router) {
			params.AuditHandler.MountRoutes(r, params.Gate)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/me", params.MeHandler.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountAPIRoutes)
		r.Route("/permissions", params.RolesHandler.MountPermissionAPIRoutes)
		r.Route("/users", params.UsersHandler.MountAPIRoutes)
		r.Route("/dashboard", func(r chi.Router) {
			params.DashboardHandler.MountAPIRoutes(r, params.Gate)
		})
		r.Route("/audit", func(r chi.Router) {
			params.AuditHandler.MountAPIRoutes(r, params.Gate)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

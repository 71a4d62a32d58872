package dashboardhttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pijar-hq/pijar/internal/authz"
	"github.com/pijar-hq/pijar/internal/dashboard"
	"github.com/pijar-hq/pijar/internal/platform/httpx"
	"github.com/pijar-hq/pijar/internal/shared"
	"github.com/pijar-hq/pijar/internal/view"
)

// OverviewService defines the business contract for dashboard data.
type OverviewService interface {
	Sales(ctx context.Context, period dashboard.Period) (dashboard.SalesOverview, error)
	Marketing(ctx context.Context, period dashboard.Period) (dashboard.MarketingOverview, error)
	Ops(ctx context.Context, period dashboard.Period) (dashboard.OpsOverview, error)
	Finance(ctx context.Context, period dashboard.Period) (dashboard.FinanceOverview, error)
	Director(ctx context.Context, period dashboard.Period) (dashboard.DirectorOverview, error)
	ParsePeriod(raw string) dashboard.Period
}

// Handler serves the dashboard pages and APIs.
type Handler struct {
	logger    *slog.Logger
	service   OverviewService
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds a dashboard handler.
func NewHandler(logger *slog.Logger, service OverviewService, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// handleLanding sends the actor to their home dashboard.
func (h *Handler) handleLanding(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	http.Redirect(w, r, dashboard.LandingPath(actor), http.StatusSeeOther)
}

// handleNoAccess renders the fallback page for actors without any dashboard.
func (h *Handler) handleNoAccess(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/no_access.html", "Tidak Ada Akses", nil)
}

func (h *Handler) handleSalesPage(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Sales(r.Context(), period)
	if err != nil {
		h.fail(w, r, "sales dashboard", err)
		return
	}
	h.render(w, r, "pages/dashboard/sales.html", "Dashboard Sales", overview)
}

func (h *Handler) handleMarketingPage(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Marketing(r.Context(), period)
	if err != nil {
		h.fail(w, r, "marketing dashboard", err)
		return
	}
	h.render(w, r, "pages/dashboard/marketing.html", "Dashboard Marketing", overview)
}

func (h *Handler) handleOpsPage(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Ops(r.Context(), period)
	if err != nil {
		h.fail(w, r, "ops dashboard", err)
		return
	}
	h.render(w, r, "pages/dashboard/ops.html", "Dashboard Ops", overview)
}

func (h *Handler) handleFinancePage(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Finance(r.Context(), period)
	if err != nil {
		h.fail(w, r, "finance dashboard", err)
		return
	}
	h.render(w, r, "pages/dashboard/finance.html", "Dashboard Finance", overview)
}

func (h *Handler) handleDirectorPage(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Director(r.Context(), period)
	if err != nil {
		h.fail(w, r, "director dashboard", err)
		return
	}
	h.render(w, r, "pages/dashboard/director.html", "Dashboard Direktur", overview)
}

func (h *Handler) handleAPISales(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Sales(r.Context(), period)
	if err != nil {
		h.apiFail(w, "sales dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleAPIMarketing(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Marketing(r.Context(), period)
	if err != nil {
		h.apiFail(w, "marketing dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleAPIOps(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Ops(r.Context(), period)
	if err != nil {
		h.apiFail(w, "ops dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleAPIFinance(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Finance(r.Context(), period)
	if err != nil {
		h.apiFail(w, "finance dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleAPIDirector(w http.ResponseWriter, r *http.Request) {
	period := h.service.ParsePeriod(r.URL.Query().Get("period"))
	overview, err := h.service.Director(r.Context(), period)
	if err != nil {
		h.apiFail(w, "director dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	h.logger.Error(what+" failed", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) apiFail(w http.ResponseWriter, what string, err error) {
	h.logger.Error(what+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Actor:       authz.ActorFromContext(r.Context()),
		Data:        data,
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

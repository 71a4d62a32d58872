package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pijar-hq/pijar/internal/audit"
	"github.com/pijar-hq/pijar/internal/authz"
	"github.com/pijar-hq/pijar/internal/platform/httpx"
	"github.com/pijar-hq/pijar/internal/shared"
	"github.com/pijar-hq/pijar/internal/view"
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
}

// Handler serves the audit timeline page and API.
type Handler struct {
	logger    *slog.Logger
	service   TimelineService
	templates *view.Engine
	csrf      *shared.CSRFManager
	now       func() time.Time
}

// NewHandler builds a new audit handler.
func NewHandler(logger *slog.Logger, service TimelineService, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, now: time.Now}
}

type timelineRowResponse struct {
	At         time.Time      `json:"at"`
	ActorID    int64          `json:"actor_id"`
	ActorEmail string         `json:"actor_email"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta"`
}

type timelineResponse struct {
	Rows    []timelineRowResponse `json:"rows"`
	Page    int                   `json:"page"`
	HasNext bool                  `json:"has_next"`
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters := h.parseFilters(r)
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
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
		Title:       "Audit",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Actor:       authz.ActorFromContext(r.Context()),
		Data: map[string]any{
			"Rows":    result.Rows,
			"Paging":  result.Paging,
			"Filters": filters,
		},
	}
	if err := h.templates.Render(w, "pages/audit/timeline.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) handleAPITimeline(w http.ResponseWriter, r *http.Request) {
	filters := h.parseFilters(r)
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	rows := make([]timelineRowResponse, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, timelineRowResponse{
			At:         row.At,
			ActorID:    row.ActorID,
			ActorEmail: row.ActorEmail,
			Action:     row.Action,
			Entity:     row.Entity,
			EntityID:   row.EntityID,
			Meta:       row.Meta,
		})
	}
	httpx.JSON(w, http.StatusOK, timelineResponse{Rows: rows, Page: result.Paging.Page, HasNext: result.Paging.HasNext})
}

func (h *Handler) parseFilters(r *http.Request) audit.TimelineFilters {
	q := r.URL.Query()
	filters := audit.TimelineFilters{
		Entity: q.Get("entity"),
		Action: q.Get("action"),
	}
	if raw := q.Get("actor"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.ActorID = id
		}
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filters.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			// Include the whole end day.
			filters.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if raw := q.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			filters.Page = page
		}
	}
	if raw := q.Get("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			filters.PageSize = size
		}
	}
	return filters
}

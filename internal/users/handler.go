package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pijar-hq/pijar/internal/authz"
	"github.com/pijar-hq/pijar/internal/platform/httpx"
	"github.com/pijar-hq/pijar/internal/roles"
	"github.com/pijar-hq/pijar/internal/shared"
	"github.com/pijar-hq/pijar/internal/view"
)

// RoleLister exposes the role list for the assignment dropdown.
type RoleLister interface {
	ListRoles(ctx context.Context) ([]roles.Role, error)
}

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     RoleLister
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	gate      authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roleLister RoleLister, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, gate authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, roles: roleLister, templates: templates, csrf: csrf, sessions: sessions, gate: gate}
}

// MountRoutes registers the HTML admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermReadUsers, authz.PermManageUsers))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermManageUsers))
		r.Post("/{userID}/role", h.assignRoleForm)
		r.Post("/{userID}/active", h.setActiveForm)
	})
}

// MountAPIRoutes registers the JSON API routes.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermReadUsers, authz.PermManageUsers))
		r.Get("/", h.apiListUsers)
		r.Get("/{userID}", h.apiGetUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermManageUsers))
		r.Put("/{userID}/role", h.apiAssignRole)
		r.Put("/{userID}/active", h.apiSetActive)
	})
}

type formErrors map[string]string

type userResponse struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	RoleID   *int64  `json:"role_id"`
	RoleName *string `json:"role_name"`
	IsActive bool    `json:"is_active"`
}

type assignRoleRequest struct {
	RoleID *int64 `json:"role_id"`
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func toUserResponse(user User) userResponse {
	return userResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
		IsActive: user.IsActive,
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	usersList, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users/list.html", map[string]any{"Errors": formErrors{"general": "Gagal memuat data"}}, http.StatusInternalServerError)
		return
	}
	roleList, err := h.roles.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		h.render(w, r, "pages/users/list.html", map[string]any{"Errors": formErrors{"general": "Gagal memuat data"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{"Users": usersList, "Roles": roleList}, http.StatusOK)
}

func (h *Handler) assignRoleForm(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	var roleID *int64
	if raw := r.PostFormValue("role_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		roleID = &id
	}
	actor := authz.ActorFromContext(r.Context())
	if _, err := h.service.AssignRole(r.Context(), actor, userID, roleID); err != nil {
		h.logger.Error("assign role failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/app/admin/users", "error", "Gagal mengubah role")
		return
	}
	h.redirectWithFlash(w, r, "/app/admin/users", "success", "Role pengguna diperbarui")
}

func (h *Handler) setActiveForm(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	active := r.PostFormValue("is_active") == "true"
	actor := authz.ActorFromContext(r.Context())
	if _, err := h.service.SetActive(r.Context(), actor, userID, active); err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			h.redirectWithFlash(w, r, "/app/admin/users", "error", "Tidak dapat menonaktifkan akun sendiri")
			return
		}
		h.logger.Error("set active failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/app/admin/users", "error", "Gagal mengubah status")
		return
	}
	h.redirectWithFlash(w, r, "/app/admin/users", "success", "Status pengguna diperbarui")
}

func (h *Handler) apiListUsers(w http.ResponseWriter, r *http.Request) {
	usersList, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(usersList))
	for _, user := range usersList {
		out = append(out, toUserResponse(user))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) apiGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) apiAssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := authz.ActorFromContext(r.Context())
	user, err := h.service.AssignRole(r.Context(), actor, userID, req.RoleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) apiSetActive(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req setActiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := authz.ActorFromContext(r.Context())
	user, err := h.service.SetActive(r.Context(), actor, userID, req.IsActive)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func userIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Pengguna", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Actor: authz.ActorFromContext(r.Context()), Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

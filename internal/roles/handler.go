package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pijar-hq/pijar/internal/authz"
	"github.com/pijar-hq/pijar/internal/platform/httpx"
	"github.com/pijar-hq/pijar/internal/shared"
	"github.com/pijar-hq/pijar/internal/view"
)

// Handler manages role management endpoints, both the admin pages and the
// JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	gate      authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, gate authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions, gate: gate}
}

// MountRoutes registers the HTML admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermReadRoles, authz.PermManageRoles))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermManageRoles))
		r.Get("/new", h.showCreateRoleForm)
		r.Post("/", h.createRole)
		r.Post("/{roleID}", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermManageRoles, authz.PermManagePermissions))
		r.Post("/{roleID}/permissions", h.replacePermissionsForm)
	})
}

// MountAPIRoutes registers the JSON API routes.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermReadRoles, authz.PermManageRoles))
		r.Get("/", h.apiListRoles)
		r.Get("/{roleID}", h.apiGetRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermManageRoles))
		r.Post("/", h.apiCreateRole)
		r.Put("/{roleID}", h.apiUpdateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermReadPermissions, authz.PermManagePermissions))
		r.Get("/{roleID}/permissions", h.apiRolePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermManageRoles, authz.PermManagePermissions))
		r.Put("/{roleID}/permissions", h.apiReplacePermissions)
	})
}

// MountPermissionAPIRoutes registers the permission catalogue API.
func (h *Handler) MountPermissionAPIRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermReadPermissions, authz.PermManagePermissions))
		r.Get("/", h.apiListPermissions)
	})
}

type formErrors map[string]string

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsManager   bool   `json:"is_manager"`
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type replacePermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

func toRoleResponse(role Role) roleResponse {
	return roleResponse{ID: role.ID, Name: role.Name, Description: role.Description, IsManager: role.IsManager}
}

func toPermissionResponses(perms []Permission) []permissionResponse {
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return out
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	rolesList, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		h.render(w, r, "pages/roles/list.html", map[string]any{"Errors": formErrors{"general": "Gagal memuat data"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/list.html", map[string]any{"Roles": rolesList}, http.StatusOK)
}

func (h *Handler) showCreateRoleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/roles/form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := RoleInput{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		IsManager:   r.PostFormValue("is_manager") == "on",
	}
	actor := authz.ActorFromContext(r.Context())
	role, err := h.service.CreateRole(r.Context(), actor, in)
	if err != nil {
		h.render(w, r, "pages/roles/form.html", map[string]any{"Form": in, "Errors": h.formErrorsFor(err)}, formStatus(err))
		return
	}
	h.redirectWithFlash(w, r, "/app/admin/roles/"+strconv.FormatInt(role.ID, 10), "success", "Role dibuat")
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := roleIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	role, err := h.service.GetRole(r.Context(), roleID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get role failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	catalogue, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	granted, err := h.service.RolePermissions(r.Context(), roleID)
	if err != nil {
		h.logger.Error("list role permissions failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	grantedSet := make(map[int64]bool, len(granted))
	for _, p := range granted {
		grantedSet[p.ID] = true
	}
	h.render(w, r, "pages/roles/detail.html", map[string]any{
		"Role":        role,
		"Permissions": catalogue,
		"Granted":     grantedSet,
		"Errors":      formErrors{},
	}, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := roleIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := RoleInput{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		IsManager:   r.PostFormValue("is_manager") == "on",
	}
	actor := authz.ActorFromContext(r.Context())
	if _, err := h.service.UpdateRole(r.Context(), actor, roleID, in); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		flash := h.formErrorsFor(err)["general"]
		if flash == "" {
			flash = h.formErrorsFor(err)["name"]
		}
		h.redirectWithFlash(w, r, "/app/admin/roles/"+strconv.FormatInt(roleID, 10), "error", flash)
		return
	}
	h.redirectWithFlash(w, r, "/app/admin/roles/"+strconv.FormatInt(roleID, 10), "success", "Role diperbarui")
}

func (h *Handler) replacePermissionsForm(w http.ResponseWriter, r *http.Request) {
	roleID, err := roleIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	var ids []int64
	for _, raw := range r.PostForm["permission_ids"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}
	actor := authz.ActorFromContext(r.Context())
	if _, err := h.service.ReplacePermissions(r.Context(), actor, roleID, ids); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("replace permissions failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/app/admin/roles/"+strconv.FormatInt(roleID, 10), "error", "Gagal menyimpan izin")
		return
	}
	h.redirectWithFlash(w, r, "/app/admin/roles/"+strconv.FormatInt(roleID, 10), "success", "Izin role diperbarui")
}

func (h *Handler) apiListRoles(w http.ResponseWriter, r *http.Request) {
	rolesList, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(rolesList))
	for _, role := range rolesList {
		out = append(out, toRoleResponse(role))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) apiGetRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := roleIDParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	role, err := h.service.GetRole(r.Context(), roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(role))
}

func (h *Handler) apiCreateRole(w http.ResponseWriter, r *http.Request) {
	var in RoleInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := authz.ActorFromContext(r.Context())
	role, err := h.service.CreateRole(r.Context(), actor, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleResponse(role))
}

func (h *Handler) apiUpdateRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := roleIDParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var in RoleInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := authz.ActorFromContext(r.Context())
	role, err := h.service.UpdateRole(r.Context(), actor, roleID, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(role))
}

func (h *Handler) apiRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := roleIDParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	perms, err := h.service.RolePermissions(r.Context(), roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponses(perms))
}

func (h *Handler) apiReplacePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := roleIDParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req replacePermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := authz.ActorFromContext(r.Context())
	perms, err := h.service.ReplacePermissions(r.Context(), actor, roleID, req.PermissionIDs)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponses(perms))
}

func (h *Handler) apiListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponses(perms))
}

func (h *Handler) formErrorsFor(err error) formErrors {
	switch {
	case errors.Is(err, httpx.ErrDuplicate):
		return formErrors{"name": "Nama role sudah dipakai"}
	case errors.Is(err, httpx.ErrValidation):
		return formErrors{"general": "Periksa kembali isian form"}
	default:
		h.logger.Error("role mutation failed", slog.Any("error", err))
		return formErrors{"general": "Gagal menyimpan data"}
	}
}

func formStatus(err error) int {
	switch {
	case errors.Is(err, httpx.ErrDuplicate), errors.Is(err, httpx.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func roleIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Roles", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Actor: authz.ActorFromContext(r.Context()), Data: data}
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

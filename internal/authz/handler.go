package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pijar-hq/pijar/internal/platform/httpx"
)

// MeHandler serves the resolved-actor API consumed by the app shell.
type MeHandler struct {
	logger *slog.Logger
	authz  Middleware
}

// NewMeHandler builds MeHandler instance.
func NewMeHandler(logger *slog.Logger, authz Middleware) *MeHandler {
	return &MeHandler{logger: logger, authz: authz}
}

// MountRoutes registers the /api/me route.
func (h *MeHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require())
		r.Get("/", h.me)
	})
}

type meUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type meProfile struct {
	ID        int64   `json:"id"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	RoleID    *int64  `json:"role_id"`
	RoleName  *string `json:"role_name"`
}

type meResponse struct {
	User        meUser    `json:"user"`
	Profile     meProfile `json:"profile"`
	Permissions []string  `json:"permissions"`
}

func (h *MeHandler) me(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if actor == nil {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		User: meUser{ID: actor.Principal.ID, Email: actor.Principal.Email},
		Profile: meProfile{
			ID:        actor.Profile.ID,
			FullName:  actor.Profile.FullName,
			AvatarURL: actor.Profile.AvatarURL,
			RoleID:    actor.Profile.RoleID,
			RoleName:  actor.Profile.RoleName,
		},
		Permissions: actor.Permissions(),
	})
}

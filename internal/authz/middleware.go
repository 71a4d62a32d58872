package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pijar-hq/pijar/internal/platform/httpx"
	"github.com/pijar-hq/pijar/internal/shared"
)

const (
	// LoginPath receives unauthenticated page requests, with the original
	// path preserved in the redirectTo query parameter.
	LoginPath = "/login"
	// NoAccessPath receives authenticated page requests that lack a
	// required permission.
	NoAccessPath = "/app/no-access"
)

type actorContextKey struct{}

// ContextWithActor stores the resolved actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the resolved actor from context, nil when the
// request never passed the gate.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}

// Middleware is the single edge component gating pages and API routes.
// The page-vs-API split (redirect vs JSON status) is decided here by request
// shape and nowhere else.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require resolves the current actor and ensures it holds every listed
// permission. With no permissions it only requires authentication. The
// resolved actor is stored in the request context.
func (m Middleware) Require(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := m.Service.ResolveActor(r.Context(), shared.SessionFromContext(r.Context()))
			if err != nil {
				m.deny(w, r, err)
				return
			}
			if !actor.CanAll(perms...) {
				m.deny(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

// RequireAny is Require with at-least-one semantics over the listed permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := m.Service.ResolveActor(r.Context(), shared.SessionFromContext(r.Context()))
			if err != nil {
				m.deny(w, r, err)
				return
			}
			allowed := len(perms) == 0
			for _, p := range perms {
				if actor.Can(p) {
					allowed = true
					break
				}
			}
			if !allowed {
				m.deny(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	api := IsAPIRequest(r)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		if api {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		target := LoginPath + "?redirectTo=" + url.QueryEscape(requestedPath(r))
		http.Redirect(w, r, target, http.StatusSeeOther)
	case errors.Is(err, ErrForbidden):
		if api {
			httpx.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		http.Redirect(w, r, NoAccessPath, http.StatusSeeOther)
	default:
		// Backend failures are surfaced as 500, never downgraded to 401/403.
		if m.Logger != nil {
			m.Logger.Error("authz resolve actor", slog.Any("error", err), slog.String("path", r.URL.Path))
		}
		if api {
			httpx.Error(w, http.StatusInternalServerError, "backend unavailable")
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// IsAPIRequest reports whether the request is API-shaped: anything under
// /api/, or a client that accepts JSON but not HTML. API clients receive
// status codes with JSON bodies, never redirects.
func IsAPIRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func requestedPath(r *http.Request) string {
	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	return path
}

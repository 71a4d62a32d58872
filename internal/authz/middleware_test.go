package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pijar-hq/pijar/internal/shared"
)

func gateFixture(t *testing.T) (*mockRepository, Middleware) {
	t.Helper()
	repo := newMockRepository()
	svc := NewService(repo, "")
	return repo, Middleware{Service: svc}
}

func serveGated(mw func(http.Handler) http.Handler, r *http.Request) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mw(next).ServeHTTP(res, r)
	return res
}

func requestWithSession(method, target string, sess *shared.Session) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestGateUnauthenticatedPageRedirectsToLogin(t *testing.T) {
	_, mw := gateFixture(t)

	req := requestWithSession(http.MethodGet, "/app/dashboard/finance?from=2026-01-01", &shared.Session{})
	res := serveGated(mw.Require(), req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login?redirectTo=%2Fapp%2Fdashboard%2Ffinance%3Ffrom%3D2026-01-01", res.Header().Get("Location"))
}

func TestGateUnauthenticatedAPIReturns401JSON(t *testing.T) {
	_, mw := gateFixture(t)

	req := requestWithSession(http.MethodGet, "/api/finance/overview", &shared.Session{})
	res := serveGated(mw.Require(PermReadFinanceData), req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, res.Body.String())
	assert.Empty(t, res.Header().Get("Location"))
}

func TestGateInactiveProfileIsUnauthenticated(t *testing.T) {
	repo, mw := gateFixture(t)
	repo.users[2] = Principal{ID: 2, Email: "u2@pijar.local"}
	repo.profiles[2] = &Profile{ID: 2, IsActive: false}

	req := requestWithSession(http.MethodGet, "/app/dashboard/sales", sessionForUser("2"))
	res := serveGated(mw.Require(), req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login?redirectTo=%2Fapp%2Fdashboard%2Fsales", res.Header().Get("Location"))
}

func TestGateMissingPermissionPageRedirectsToNoAccess(t *testing.T) {
	repo, mw := gateFixture(t)
	repo.users[1] = Principal{ID: 1, Email: "u1@pijar.local"}
	roleID := int64(4)
	repo.profiles[1] = &Profile{ID: 1, RoleID: &roleID, IsActive: true}
	repo.perms[4] = []string{PermReadOpsData}

	req := requestWithSession(http.MethodGet, "/app/dashboard/finance", sessionForUser("1"))
	res := serveGated(mw.Require(PermReadFinanceData), req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, NoAccessPath, res.Header().Get("Location"))
}

func TestGateMissingPermissionAPIReturns403JSON(t *testing.T) {
	repo, mw := gateFixture(t)
	repo.users[1] = Principal{ID: 1, Email: "u1@pijar.local"}
	roleID := int64(4)
	repo.profiles[1] = &Profile{ID: 1, RoleID: &roleID, IsActive: true}
	repo.perms[4] = []string{PermReadOpsData}

	req := requestWithSession(http.MethodGet, "/api/finance/overview", sessionForUser("1"))
	res := serveGated(mw.Require(PermReadFinanceData), req)

	require.Equal(t, http.StatusForbidden, res.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, res.Body.String())
}

func TestGateGrantedPermissionPasses(t *testing.T) {
	repo, mw := gateFixture(t)
	repo.users[1] = Principal{ID: 1, Email: "u1@pijar.local"}
	roleID := int64(4)
	repo.profiles[1] = &Profile{ID: 1, RoleID: &roleID, IsActive: true}
	repo.perms[4] = []string{PermReadOpsData, PermReadFinanceData}

	req := requestWithSession(http.MethodGet, "/api/ops/overview", sessionForUser("1"))
	res := serveGated(mw.Require(PermReadOpsData), req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.Body.String())
}

func TestGateRequireAny(t *testing.T) {
	repo, mw := gateFixture(t)
	repo.users[1] = Principal{ID: 1, Email: "u1@pijar.local"}
	roleID := int64(4)
	repo.profiles[1] = &Profile{ID: 1, RoleID: &roleID, IsActive: true}
	repo.perms[4] = []string{PermReadSalesOverview}

	req := requestWithSession(http.MethodGet, "/api/sales/overview", sessionForUser("1"))
	res := serveGated(mw.RequireAny(PermReadSalesOverview, PermReadDirectorOverview), req)
	require.Equal(t, http.StatusOK, res.Code)

	req = requestWithSession(http.MethodGet, "/api/director/overview", sessionForUser("1"))
	res = serveGated(mw.RequireAny(PermReadDirectorOverview, PermReadFinanceData), req)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestGateBackendFailureIs500NotRedirect(t *testing.T) {
	repo, mw := gateFixture(t)
	repo.users[1] = Principal{ID: 1, Email: "u1@pijar.local"}
	repo.getProfileError = context.DeadlineExceeded

	req := requestWithSession(http.MethodGet, "/api/sales/overview", sessionForUser("1"))
	res := serveGated(mw.Require(PermReadSalesOverview), req)
	require.Equal(t, http.StatusInternalServerError, res.Code)
	assert.JSONEq(t, `{"error":"backend unavailable"}`, res.Body.String())

	req = requestWithSession(http.MethodGet, "/app/dashboard/sales", sessionForUser("1"))
	res = serveGated(mw.Require(PermReadSalesOverview), req)
	require.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Empty(t, res.Header().Get("Location"))
}

func TestIsAPIRequest(t *testing.T) {
	api := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	assert.True(t, IsAPIRequest(api))

	page := httptest.NewRequest(http.MethodGet, "/app/dashboard/sales", nil)
	assert.False(t, IsAPIRequest(page))

	jsonClient := httptest.NewRequest(http.MethodGet, "/app/export", nil)
	jsonClient.Header.Set("Accept", "application/json")
	assert.True(t, IsAPIRequest(jsonClient))

	browser := httptest.NewRequest(http.MethodGet, "/app/export", nil)
	browser.Header.Set("Accept", "text/html,application/json;q=0.9")
	assert.False(t, IsAPIRequest(browser))
}

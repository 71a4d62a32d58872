package authz

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pijar-hq/pijar/internal/shared"
	_ "github.com/pijar-hq/pijar/testing"
)

func meFixture(t *testing.T) (*mockRepository, http.Handler) {
	t.Helper()
	repo := newMockRepository()
	svc := NewService(repo, "")
	handler := NewMeHandler(nil, Middleware{Service: svc})

	r := chi.NewRouter()
	r.Route("/api/me", handler.MountRoutes)
	return repo, r
}

func TestMeReturnsActorShape(t *testing.T) {
	repo, router := meFixture(t)
	fullName := "Dewi Lestari"
	roleName := "finance"
	roleID := int64(4)
	repo.users[9] = Principal{ID: 9, Email: "dewi@pijar.local"}
	repo.profiles[9] = &Profile{ID: 9, FullName: &fullName, RoleID: &roleID, RoleName: &roleName, IsActive: true}
	repo.perms[roleID] = []string{PermReadFinanceData, PermManageFinanceData}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sessionForUser("9")))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		User struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Profile struct {
			FullName *string `json:"full_name"`
			RoleName *string `json:"role_name"`
		} `json:"profile"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, int64(9), body.User.ID)
	assert.Equal(t, "dewi@pijar.local", body.User.Email)
	require.NotNil(t, body.Profile.FullName)
	assert.Equal(t, "Dewi Lestari", *body.Profile.FullName)
	require.NotNil(t, body.Profile.RoleName)
	assert.Equal(t, "finance", *body.Profile.RoleName)
	assert.ElementsMatch(t, []string{PermReadFinanceData, PermManageFinanceData}, body.Permissions)
}

func TestMeUnauthenticatedReturns401(t *testing.T) {
	_, router := meFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{}))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, res.Body.String())
}

func TestMeAutoProvisionsProfileOnFirstCall(t *testing.T) {
	repo, router := meFixture(t)
	repo.users[3] = Principal{ID: 3, Email: "baru@pijar.local"}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sessionForUser("3")))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, 1, repo.createCalls)
	assert.Contains(t, repo.profiles, int64(3))
}

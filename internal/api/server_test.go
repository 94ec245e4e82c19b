package api

import (
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rankdeskapp/rankdesk-server/internal/auth"
	"github.com/rankdeskapp/rankdesk-server/internal/config"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	"github.com/rankdeskapp/rankdesk-server/internal/mail"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server *Server
	store  *store.Store
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	logger := slog.New(slog.DiscardHandler)
	sender := mail.NewLogSender(logger)
	serverCfg := config.ServerConfig{PublicURL: "http://localhost:8080"}

	tokenService, err := auth.NewTokenService(strings.Repeat("ab", 32), time.Hour)
	require.NoError(t, err)

	authSvc := service.NewAuthService(st, tokenService, sender, serverCfg, logger)
	inviteSvc := service.NewInviteService(st, authSvc, sender, serverCfg, logger)

	server := NewServer(Services{
		Auth:      authSvc,
		Users:     service.NewUserService(st, logger),
		Accounts:  service.NewAccountService(st, inviteSvc, logger),
		Posts:     service.NewBlogPostService(st, logger),
		Backlinks: service.NewBacklinkService(st, logger),
		Invites:   inviteSvc,
		Dashboard: service.NewDashboardService(st, logger),
	}, logger)
	t.Cleanup(server.Close)

	return &testServer{server: server, store: st, tokens: tokenService}
}

// seedUser persists a verified user and returns it with a session token.
func (ts *testServer) seedUser(t *testing.T, id string, role domain.Role) (*domain.User, string) {
	t.Helper()

	passwordHash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)

	user := &domain.User{
		Name:         "Test " + id,
		Email:        id + "@example.com",
		PasswordHash: passwordHash,
		Role:         role,
		Verified:     true,
	}
	user.ID = id
	user.InitTimestamps()
	require.NoError(t, ts.store.CreateUser(user))

	token, err := ts.tokens.GenerateAccessToken(user)
	require.NoError(t, err)
	return user, token
}

func (ts *testServer) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeMap(t, rec)["status"])
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"name":"Dana","email":"dana@example.com","password":"longenoughpassword"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeMap(t, rec)
	require.Contains(t, body, "user")

	// Unverified users cannot log in.
	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"dana@example.com","password":"longenoughpassword"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	user, err := ts.store.GetUserByEmail("dana@example.com")
	require.NoError(t, err)
	user.Verified = true
	require.NoError(t, ts.store.UpdateUser(user))

	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"dana@example.com","password":"longenoughpassword"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeMap(t, rec)
	accessToken, ok := session["accessToken"].(string)
	require.True(t, ok)
	require.NotEmpty(t, accessToken)

	rec = ts.request(t, http.MethodGet, "/api/v1/profile", accessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dana@example.com", decodeMap(t, rec)["email"])
}

func TestLoginWrongPasswordStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "user-1", domain.RoleAgency)

	rec := ts.request(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"user-1@example.com","password":"not the password"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeMap(t, rec)["message"])
}

func TestProfileRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/profile", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/profile", "not-a-real-token", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/v1/auth/register", "", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.seedUser(t, "user-admin", domain.RoleAdmin)

	rec := ts.request(t, http.MethodPost, "/api/v1/seo-accounts", adminToken,
		`{"name":"Acme","domain":"acme.com","contactEmail":"owner@acme.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeMap(t, rec)
	account, ok := created["seoAccount"].(map[string]any)
	require.True(t, ok)
	accountID, ok := account["id"].(string)
	require.True(t, ok)

	// Duplicate domain conflicts.
	rec = ts.request(t, http.MethodPost, "/api/v1/seo-accounts", adminToken,
		`{"name":"Acme Again","domain":"ACME.com"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/seo-accounts/"+accountID, adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acme.com", decodeMap(t, rec)["domain"])

	rec = ts.request(t, http.MethodPut, "/api/v1/seo-accounts/"+accountID, adminToken,
		`{"status":"paused"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodDelete, "/api/v1/seo-accounts/"+accountID, adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/seo-accounts/"+accountID, adminToken, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnonymousListingEnvelope(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.seedUser(t, "user-admin", domain.RoleAdmin)

	for i := range 3 {
		rec := ts.request(t, http.MethodPost, "/api/v1/seo-accounts", adminToken,
			fmt.Sprintf(`{"name":"Site %d","domain":"site%d.com"}`, i, i))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.request(t, http.MethodGet, "/api/v1/seo-accounts?limit=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)

	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, pagination["total"])
	assert.EqualValues(t, 2, pagination["pages"])
	assert.Equal(t, true, pagination["hasNext"])
}

func TestAccountMutationsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/v1/seo-accounts", "",
		`{"name":"Acme","domain":"acme.com"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccountGetStatusByCaller(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.seedUser(t, "user-admin", domain.RoleAdmin)
	_, outsiderToken := ts.seedUser(t, "user-outsider", domain.RoleAgency)

	rec := ts.request(t, http.MethodPost, "/api/v1/seo-accounts", adminToken,
		`{"name":"Acme","domain":"acme.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	account, ok := decodeMap(t, rec)["seoAccount"].(map[string]any)
	require.True(t, ok)
	accountID, ok := account["id"].(string)
	require.True(t, ok)

	// No credential asks for authentication; a credentialed outsider is
	// refused outright.
	rec = ts.request(t, http.MethodGet, "/api/v1/seo-accounts/"+accountID, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/seo-accounts/"+accountID, outsiderToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesForbiddenForAgency(t *testing.T) {
	ts := newTestServer(t)
	_, agencyToken := ts.seedUser(t, "user-agency", domain.RoleAgency)

	rec := ts.request(t, http.MethodGet, "/api/v1/users", agencyToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/dashboard/user-stats", agencyToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t)

	var last int
	for range 12 {
		rec := ts.request(t, http.MethodPost, "/api/v1/auth/login", "",
			`{"email":"nobody@example.com","password":"whatever password"}`)
		last = rec.Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"twin-dashboard/internal/config"
	"twin-dashboard/internal/handler"
	"twin-dashboard/internal/middleware"
	"twin-dashboard/internal/repository"
	"twin-dashboard/internal/router"
	"twin-dashboard/internal/service"
	"twin-dashboard/internal/token"
	"twin-dashboard/pkg/authapi"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin123!secure"
	userEmail     = "user@example.com"
	userPassword  = "user123!secure"
	testSecret    = "integration-test-secret"
)

type testEnv struct {
	server *httptest.Server
	tokens *token.Service
}

// newTestEnv stands up the full HTTP stack on in-memory stores, seeded with
// one admin and one regular user.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repository.NewMemoryUserStore()
	resets := repository.NewMemoryResetStore()
	twins := repository.NewMemoryTwinStore()

	tokens := token.NewService(testSecret, time.Hour)

	authService, err := service.NewAuthService(users, resets, tokens, service.LogNotifier{}, 30*time.Minute)
	require.NoError(t, err)
	twinService := service.NewTwinService(twins)

	ctx := context.Background()
	require.NoError(t, authService.EnsureBootstrapAdmin(ctx, adminEmail, adminPassword))
	_, err = authService.Register(ctx, authapi.RegisterRequest{
		Email:    userEmail,
		Password: userPassword,
		FullName: "Regular User",
	})
	require.NoError(t, err)

	cfg := &config.Config{
		ServerPort:       "0",
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     0,
		AuthRateLimitRPM: 0,
	}

	gate := middleware.NewAuthMiddleware(tokens)
	mux := router.New(cfg, gate, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(authService),
		Twin: handler.NewTwinHandler(twinService),
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{server: server, tokens: tokens}
}

// login posts the form-encoded credential exchange and returns the raw
// response without asserting on it.
func (e *testEnv) login(t *testing.T, email string, password string) *http.Response {
	t.Helper()

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	resp, err := http.Post(e.server.URL+authapi.PathToken,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// mustLogin logs in and returns the decoded token response.
func (e *testEnv) mustLogin(t *testing.T, email string, password string) authapi.TokenResponse {
	t.Helper()

	resp := e.login(t, email, password)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenResp authapi.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokenResp))
	require.NotEmpty(t, tokenResp.AccessToken)

	return tokenResp
}

func (e *testEnv) doJSON(t *testing.T, method string, path string, body io.Reader, accessToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeErrorDetail(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body authapi.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Detail
}

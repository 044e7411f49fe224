package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twin-dashboard/internal/model"
	"twin-dashboard/internal/token"
	"twin-dashboard/pkg/authapi"
)

func newGate(t *testing.T) (*AuthMiddleware, *token.Service) {
	t.Helper()
	tokens := token.NewService("test-secret", time.Hour)
	return NewAuthMiddleware(tokens), tokens
}

func issueFor(t *testing.T, tokens *token.Service, role string) string {
	t.Helper()
	raw, err := tokens.Issue(model.User{ID: "user-001", Email: "someone@example.com", Role: role})
	require.NoError(t, err)
	return raw
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "user-001", claims.UserID)
		w.WriteHeader(http.StatusOK)
	})
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body authapi.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestRequireAuthAttachesClaims(t *testing.T) {
	gate, tokens := newGate(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/twins", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, authapi.RoleUser))
	rec := httptest.NewRecorder()

	gate.RequireAuth(okHandler(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejectsUniformly(t *testing.T) {
	gate, _ := newGate(t)
	foreign := token.NewService("other-secret", time.Hour)

	cases := map[string]func(r *http.Request){
		"no header":      func(*http.Request) {},
		"not bearer":     func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
		"garbage token":  func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") },
		"wrong signer":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+issueFor(t, foreign, authapi.RoleUser)) },
		"empty token":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
	}

	for name, decorate := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/twins", nil)
			decorate(req)
			rec := httptest.NewRecorder()

			gate.RequireAuth(okHandler(t)).ServeHTTP(rec, req)

			// Identical status and body regardless of rejection reason.
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Not authenticated", decodeDetail(t, rec))
		})
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	tokens := token.NewService("test-secret", time.Hour).WithClock(func() time.Time { return clock })
	gate := NewAuthMiddleware(tokens)

	raw := issueFor(t, tokens, authapi.RoleUser)
	clock = issued.Add(2 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/twins", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()

	gate.RequireAuth(okHandler(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decodeDetail(t, rec))
}

func TestRequireRoles(t *testing.T) {
	gate, tokens := newGate(t)
	protected := gate.RequireAuth(gate.RequireRoles(authapi.RoleAdmin)(okHandler(t)))

	adminReq := httptest.NewRequest(http.MethodPost, "/api/v1/twins", nil)
	adminReq.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, authapi.RoleAdmin))
	adminRec := httptest.NewRecorder()
	protected.ServeHTTP(adminRec, adminReq)
	assert.Equal(t, http.StatusOK, adminRec.Code)

	userReq := httptest.NewRequest(http.MethodPost, "/api/v1/twins", nil)
	userReq.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, authapi.RoleUser))
	userRec := httptest.NewRecorder()
	protected.ServeHTTP(userRec, userReq)
	assert.Equal(t, http.StatusForbidden, userRec.Code)
	assert.Equal(t, "Insufficient permissions", decodeDetail(t, userRec))
}

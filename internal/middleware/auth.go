package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"twin-dashboard/internal/token"
	"twin-dashboard/pkg/authapi"
)

type tokenValidator interface {
	Validate(raw string) (token.Claims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

// AuthMiddleware is the resource gate: it runs before any protected handler
// and either attaches a resolved identity to the request context or rejects
// the call. Every rejection reason produces the same 401 body; the specific
// reason is only logged.
type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeGateError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := m.validator.Validate(strings.TrimSpace(header[7:]))
		if err != nil {
			slog.Debug("bearer token rejected", "reason", err, "path", r.URL.Path)
			writeGateError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles composes after RequireAuth. A resolved identity with the
// wrong role gets 403, distinct from the gate's 401.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeGateError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			if _, exists := roleSet[strings.ToLower(claims.Role)]; !exists {
				writeGateError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(token.Claims)
	return claims, ok
}

func writeGateError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(authapi.ErrorBody{Detail: detail})
}

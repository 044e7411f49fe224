package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"twin-dashboard/pkg/authapi"
)

func TestRateLimitUnlimitedGeneral(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 1)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, authapi.PathTwins, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitThrottlesAuth(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 1)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, authapi.PathToken, nil))
	assert.Equal(t, http.StatusOK, first.Code)

	// Burst of one: the second immediate attempt is throttled.
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, authapi.PathToken, nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitSeparatesClients(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 1)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	reqA := httptest.NewRequest(http.MethodPost, authapi.PathToken, nil)
	reqA.RemoteAddr = "10.0.0.1:1234"
	recA := httptest.NewRecorder()
	handler.ServeHTTP(recA, reqA)
	assert.Equal(t, http.StatusOK, recA.Code)

	reqB := httptest.NewRequest(http.MethodPost, authapi.PathToken, nil)
	reqB.RemoteAddr = "10.0.0.2:1234"
	recB := httptest.NewRecorder()
	handler.ServeHTTP(recB, reqB)
	assert.Equal(t, http.StatusOK, recB.Code)
}

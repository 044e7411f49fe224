package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"twin-dashboard/internal/config"
	"twin-dashboard/internal/handler"
	"twin-dashboard/internal/middleware"
	"twin-dashboard/pkg/authapi"
)

type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler
	Twin *handler.TwinHandler
}

// New assembles the HTTP surface. Every path is an authapi constant, so the
// router and the session client agree on the wire contract by construction.
func New(cfg *config.Config, gate *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimit := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimit.Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get(authapi.PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post(authapi.PathToken, h.Auth.Token)
	r.Post(authapi.PathRegister, h.Auth.Register)
	r.Post(authapi.PathForgotPassword, h.Auth.ForgotPassword)
	r.Post(authapi.PathResetPassword, h.Auth.ResetPassword)

	r.With(gate.RequireAuth).Get(authapi.PathMe, h.Auth.Me)
	r.With(gate.RequireAuth).Put(authapi.PathProfile, h.Auth.UpdateProfile)
	r.With(gate.RequireAuth).Post(authapi.PathChangePassword, h.Auth.ChangePassword)
	r.With(gate.RequireAuth, gate.RequireRoles(authapi.RoleAdmin)).Get(authapi.PathUsers, h.User.List)

	r.With(gate.RequireAuth).Get(authapi.PathTwins, h.Twin.List)
	r.With(gate.RequireAuth).Get(authapi.PathTwins+"/{twin_id}", h.Twin.Get)
	r.With(gate.RequireAuth, gate.RequireRoles(authapi.RoleAdmin)).Post(authapi.PathTwins, h.Twin.Create)

	return r
}

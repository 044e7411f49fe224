package handler

import (
	"net/http"

	"twin-dashboard/internal/service"
	"twin-dashboard/pkg/authapi"
)

// UserHandler serves the admin-only user listing.
type UserHandler struct {
	service *service.AuthService
}

func NewUserHandler(service *service.AuthService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]authapi.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Snapshot())
	}

	writeJSON(w, http.StatusOK, out)
}

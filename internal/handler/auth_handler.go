package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"twin-dashboard/internal/middleware"
	"twin-dashboard/internal/service"
	"twin-dashboard/pkg/apierror"
	"twin-dashboard/pkg/authapi"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Token handles POST /auth/token. The request is form-encoded with
// "username" (the email) and "password", OAuth2 password-grant style.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		writeError(w, apierror.New("VALIDATION", "Invalid form body", http.StatusBadRequest))
		return
	}

	email := strings.TrimSpace(r.PostFormValue("username"))
	plaintext := r.PostFormValue("password")
	if email == "" || plaintext == "" {
		writeError(w, apierror.New("VALIDATION", "Username and password are required", http.StatusBadRequest))
		return
	}

	accessToken, user, err := h.service.Login(r.Context(), email, plaintext)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authapi.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        user.Snapshot(),
	})
}

// Register handles POST /auth/register. A created identity is returned
// without a token; the caller logs in separately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload authapi.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION", "Invalid JSON body", http.StatusBadRequest))
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.Snapshot())
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "Not authenticated", http.StatusUnauthorized))
		return
	}

	user, err := h.service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Snapshot())
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "Not authenticated", http.StatusUnauthorized))
		return
	}

	var payload authapi.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION", "Invalid JSON body", http.StatusBadRequest))
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Snapshot())
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "Not authenticated", http.StatusUnauthorized))
		return
	}

	var payload authapi.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION", "Invalid JSON body", http.StatusBadRequest))
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authapi.MessageResponse{Message: "Password changed successfully"})
}

// ForgotPassword responds identically whether or not the email exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload authapi.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION", "Invalid JSON body", http.StatusBadRequest))
		return
	}

	if err := h.service.ForgotPassword(r.Context(), payload.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authapi.MessageResponse{
		Message: "If your email is registered, you will receive a password reset link",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload authapi.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION", "Invalid JSON body", http.StatusBadRequest))
		return
	}

	if strings.TrimSpace(payload.Token) == "" {
		writeError(w, apierror.New("VALIDATION", "Reset token is required", http.StatusBadRequest))
		return
	}

	if err := h.service.ResetPassword(r.Context(), payload.Token, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authapi.MessageResponse{Message: "Password has been reset successfully"})
}

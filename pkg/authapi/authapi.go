// Package authapi defines the wire contract for the dashboard's
// authentication API. Both the server router/handlers and the session
// client import these path constants and payload types, so the two sides
// cannot drift apart on paths or response shapes.
package authapi

import "time"

// Route paths. The server mounts handlers on these exact paths and the
// session client builds requests from them.
const (
	PathToken          = "/auth/token"
	PathRegister       = "/auth/register"
	PathMe             = "/auth/me"
	PathProfile        = "/auth/profile"
	PathChangePassword = "/auth/change-password"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"
	PathUsers          = "/auth/users"

	PathTwins = "/api/v1/twins"

	PathHealth = "/health"
)

// Roles carried in tokens and user snapshots.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the identity snapshot returned by the API. It never carries
// credential material.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is the 200 body of POST /auth/token. The request itself is
// form-encoded with fields "username" and "password".
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Company  string `json:"company,omitempty"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Company  *string `json:"company,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// MessageResponse is used by endpoints that only acknowledge an action
// (change-password, forgot-password, reset-password).
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorBody is the uniform error shape for every non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Twin is a digital-twin record as served by the protected twin endpoints.
type Twin struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateTwinRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

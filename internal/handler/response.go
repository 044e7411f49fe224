package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"twin-dashboard/internal/model"
	"twin-dashboard/pkg/apierror"
	"twin-dashboard/pkg/authapi"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError is the single mapping from service errors to wire responses.
// Credential and token failures collapse to generic bodies here; anything
// more specific exists only in server-side logs.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := "Unexpected server error"

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		detail = apiErr.Detail
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		detail = "Invalid credentials"
	case errors.Is(err, model.ErrAccountDisabled):
		status = http.StatusForbidden
		detail = "Account disabled"
	case errors.Is(err, model.ErrDuplicateIdentity):
		status = http.StatusConflict
		detail = "Email already registered"
	case errors.Is(err, model.ErrIncorrectPassword):
		status = http.StatusBadRequest
		detail = "Incorrect password"
	case errors.Is(err, model.ErrResetTokenInvalid), errors.Is(err, model.ErrResetTokenExpired):
		status = http.StatusBadRequest
		detail = "Invalid or expired reset token"
	case errors.Is(err, model.ErrUnauthorized),
		errors.Is(err, model.ErrTokenMalformed),
		errors.Is(err, model.ErrTokenSignatureInvalid),
		errors.Is(err, model.ErrTokenExpired):
		status = http.StatusUnauthorized
		detail = "Not authenticated"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		detail = "Insufficient permissions"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		detail = "User not found"
	case errors.Is(err, model.ErrTwinNotFound):
		status = http.StatusNotFound
		detail = "Twin not found"
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		detail = "Invalid input"
	default:
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, authapi.ErrorBody{Detail: detail})
}

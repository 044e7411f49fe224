package model

import "errors"

var (
	// Identity related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateIdentity  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrIncorrectPassword  = errors.New("incorrect password")

	// Access token related errors
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")

	// Password reset related errors
	ErrResetTokenInvalid = errors.New("reset token invalid")
	ErrResetTokenExpired = errors.New("reset token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Twin related errors
	ErrTwinNotFound = errors.New("twin not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)

package model

import (
	"time"

	"twin-dashboard/pkg/authapi"
)

// Account statuses. Login requires StatusActive.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User is the internal identity record. PasswordHash must never cross the
// API boundary; handlers only ever see the Snapshot form.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Company      string    `json:"company,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot strips credential material for the wire.
func (u User) Snapshot() authapi.User {
	return authapi.User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Company:   u.Company,
		Role:      u.Role,
		IsActive:  u.Status == StatusActive,
		CreatedAt: u.CreatedAt,
	}
}

// ProfileUpdate carries the mutable profile fields. Nil means "leave as is".
type ProfileUpdate struct {
	FullName *string
	Company  *string
}

// PasswordReset is a pending single-use reset request. Only the SHA-256 hash
// of the token is stored; the plaintext token goes out of band to the user.
type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

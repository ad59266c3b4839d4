package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id" db:"id"`

	// Username is the display name of the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address (unique).
	// Used for login.
	Email string `json:"email" db:"email"`

	// PasswordHash is the bcrypt hash of the password. Never serialized.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64 `json:"createdAt" db:"created_at"`

	// UpdatedAt is the Unix timestamp of the last password change.
	UpdatedAt int64 `json:"updatedAt" db:"updated_at"`
}

// NewUser returns a user with a fresh ID and creation time.
func NewUser(email, username, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PasswordResetToken is a single-use token that allows a password change.
type PasswordResetToken struct {
	Token     string `db:"token"`
	UserID    string `db:"user_id"`
	ExpiresAt int64  `db:"expires_at"`
}

// Expired reports whether the token is no longer usable at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.Unix() >= t.ExpiresAt
}

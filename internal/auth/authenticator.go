// Package auth implements password accounts, password reset and JWT sessions.
package auth

import (
	"context"

	"github.com/mmynk/grouppay/internal/models"
)

// Authenticator registers and verifies users. The service layer only depends
// on this interface so another credential type can replace passwords.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, username, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrResetTokenInvalid  = errors.New("reset token is invalid or expired")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage  storage.UserStore
	resetTTL time.Duration
	cost     int
	now      func() time.Time
}

// Option configures a PasswordAuthenticator.
type Option func(*PasswordAuthenticator)

// WithResetTTL sets how long a password reset token stays valid.
func WithResetTTL(ttl time.Duration) Option {
	return func(a *PasswordAuthenticator) { a.resetTTL = ttl }
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(a *PasswordAuthenticator) { a.cost = cost }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *PasswordAuthenticator) { a.now = now }
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(store storage.UserStore, opts ...Option) *PasswordAuthenticator {
	a := &PasswordAuthenticator{
		storage:  store,
		resetTTL: 15 * time.Minute,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, username, credential string) (*models.User, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	hash, err := a.hash(credential)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(email, username, hash)
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RequestReset issues a reset token for the account registered with email.
func (a *PasswordAuthenticator) RequestReset(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	user, err := a.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token := &models.PasswordResetToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: a.now().Add(a.resetTTL).Unix(),
	}
	if err := a.storage.CreateResetToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ResetPassword consumes token and sets a new password for its user.
func (a *PasswordAuthenticator) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := a.ValidateCredential(newPassword); err != nil {
		return err
	}

	t, err := a.storage.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if t.Expired(a.now()) {
		return ErrResetTokenInvalid
	}

	hash, err := a.hash(newPassword)
	if err != nil {
		return err
	}
	return a.storage.UpdatePassword(ctx, t.UserID, hash)
}

func (a *PasswordAuthenticator) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

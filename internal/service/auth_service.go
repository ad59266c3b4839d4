package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/grouppay/internal/auth"
	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/storage"
)

// Credentials is what AuthService needs from the authenticator.
type Credentials interface {
	auth.Authenticator
	RequestReset(ctx context.Context, email string) (*models.PasswordResetToken, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  *models.User
}

// AuthService handles registration, login and password reset.
type AuthService struct {
	credentials Credentials
	jwtManager  *auth.JWTManager
	users       storage.UserStore
	logger      *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(credentials Credentials, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		credentials: credentials,
		jwtManager:  jwtManager,
		users:       users,
		logger:      logger,
	}
}

// Register creates a new user account and signs them in.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*Session, error) {
	s.logger.Info("Register request", "email", email)

	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" {
		return nil, ledger.Errorf(ledger.KindInvalidInput, "email and username are required")
	}

	user, err := s.credentials.Register(ctx, email, username, password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", email, "error", err)
		return nil, err
	}
	return s.session(user)
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.credentials.Authenticate(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, err
	}
	s.logger.Info("User logged in", "user_id", user.ID)
	return s.session(user)
}

// ForgotPassword issues a reset token. There is no mail delivery, so the
// token is logged. The REST layer decides whether to return it.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	token, err := s.credentials.RequestReset(ctx, strings.TrimSpace(email))
	if err != nil {
		s.logger.Warn("Password reset request failed", "email", email, "error", err)
		return "", err
	}
	s.logger.Info("Password reset token issued", "email", email, "token", token.Token)
	return token.Token, nil
}

// ResetPassword sets a new password using a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.credentials.ResetPassword(ctx, token, newPassword); err != nil {
		s.logger.Warn("Password reset failed", "error", err)
		return err
	}
	return nil
}

// CurrentUser returns the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

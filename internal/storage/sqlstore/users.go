package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/storage"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT 1 FROM users WHERE email = ?`), user.Email)
		if err == nil {
			return storage.ErrEmailTaken
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check email: %w", err)
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO users (`+userColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
		`),
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

// UpdatePassword replaces the password hash of a user.
func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`),
		passwordHash, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectRows(res, "user", userID)
}

// CreateResetToken stores a password reset token.
func (s *Store) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES (?, ?, ?)`),
		token.Token, token.UserID, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken deletes a reset token and returns it.
func (s *Store) ConsumeResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	t := &models.PasswordResetToken{}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, t,
			tx.Rebind(`SELECT token, user_id, expires_at FROM password_reset_tokens WHERE token = ?`+s.dialect.forUpdate()),
			token,
		)
		if err != nil {
			return notFound(err, "reset token", token)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM password_reset_tokens WHERE token = ?`), token); err != nil {
			return fmt.Errorf("failed to delete reset token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

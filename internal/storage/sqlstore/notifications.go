package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/grouppay/internal/models"
)

const notificationColumns = `id, user_id, title, message, kind, is_read, created_at`

// CreateNotification stores a notification for n.UserID.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), n.ID, n.UserID, n.Title, n.Message, n.Kind, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	notifications := []*models.Notification{}
	err := s.db.SelectContext(ctx, &notifications, s.db.Rebind(`
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks one of the user's notifications as read.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`),
		true, notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return expectRows(res, "notification", notificationID)
}

// MarkAllNotificationsRead marks every notification of the user as read.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE notifications SET is_read = ? WHERE user_id = ?`), true, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/storage"
)

// NotificationService stores notifications and lets users read them.
type NotificationService struct {
	store  storage.NotificationStore
	logger *slog.Logger
}

func NewNotificationService(store storage.NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

// Notify stores a notification for userID.
func (s *NotificationService) Notify(ctx context.Context, userID string, kind models.NotificationKind, title, message string) error {
	n := &models.Notification{UserID: userID, Kind: kind, Title: title, Message: message}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("Failed to store notification", "user_id", userID, "kind", kind, "error", err)
		return err
	}
	return nil
}

// notifyQuietly is Notify for side effects of an operation that already
// succeeded. Failures are logged by Notify and otherwise ignored.
func (s *NotificationService) notifyQuietly(ctx context.Context, userID string, kind models.NotificationKind, title, message string) {
	_ = s.Notify(ctx, userID, kind, title, message)
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.store.ListNotifications(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, userID, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

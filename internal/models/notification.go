package models

// NotificationKind classifies a notification.
type NotificationKind string

const (
	NotificationExpense  NotificationKind = "EXPENSE"
	NotificationSystem   NotificationKind = "SYSTEM"
	NotificationReminder NotificationKind = "REMINDER"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"userId" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Read      bool             `json:"read" db:"is_read"`
	CreatedAt int64            `json:"createdAt" db:"created_at"`
}

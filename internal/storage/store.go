// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/models"
)

// UserStore persists accounts and password reset tokens.
type UserStore interface {
	// CreateUser inserts user. Returns ErrEmailTaken if the email is in use.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	// ConsumeResetToken deletes the token and returns it. A token can be
	// consumed once.
	ConsumeResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup inserts group and adds group.CreatedBy as its first member.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember returns ledger.ErrDuplicateMember if userID already belongs
	// to the group.
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// ExpenseStore reads recorded expenses. Writes go through a Tx.
type ExpenseStore interface {
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	// ListExpensesByGroup returns the group's expenses that are not deleted,
	// oldest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
}

// NotificationStore persists per-user notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	// ListNotifications returns the user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// Tx is a unit of work on one group's ledger. Everything done through it is
// committed together or not at all.
type Tx interface {
	ledger.Journal
	ledger.BalanceReader

	// GroupMembers returns the sorted member IDs of the group, or
	// ledger.ErrNotFound if the group does not exist.
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
	InsertExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	MarkExpenseDeleted(ctx context.Context, expenseID string, at time.Time) error
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	NotificationStore
	ledger.BalanceReader

	// InTx runs fn in a transaction. The transaction commits if fn returns
	// nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

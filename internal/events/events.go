// Package events publishes domain events after ledger changes commit.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Event is a domain event. Type is used as the routing key.
type Event interface {
	Type() string
}

// ExpenseCreated is published once an expense is recorded and applied.
type ExpenseCreated struct {
	ExpenseID  string          `json:"expenseId"`
	GroupID    string          `json:"groupId"`
	PayerID    string          `json:"payerId"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurredAt"`
}

func (ExpenseCreated) Type() string { return "expense.created" }

// ExpenseDeleted is published once an expense has been reversed.
type ExpenseDeleted struct {
	ExpenseID  string    `json:"expenseId"`
	GroupID    string    `json:"groupId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (ExpenseDeleted) Type() string { return "expense.deleted" }

// Publisher delivers events. Publishing happens after the ledger transaction
// has committed, so a failure never undoes a ledger change.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to a logger. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher returns a LogPublisher. A nil logger means slog.Default().
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "Event published", "type", event.Type(), "event", event)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

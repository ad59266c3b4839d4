package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/grouppay/internal/events"
	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/metrics"
	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/storage"
)

// NewExpense is a proposed expense as submitted by a client.
type NewExpense struct {
	GroupID     string
	PayerID     string
	Amount      decimal.Decimal
	Description string
	// SplitKind is EQUAL, EXACT or PERCENTAGE.
	SplitKind string
	// Splits holds exact amounts or percentages keyed by user ID. For EQUAL
	// it only names participants and the values are ignored.
	Splits map[string]decimal.Decimal
	// Participants names EQUAL participants as a plain list.
	Participants []string
}

// ExpenseService records and deletes expenses. Every change to a group's
// ledger happens under that group's lock and inside one transaction.
type ExpenseService struct {
	store     storage.Store
	lock      groupLock
	publisher events.Publisher
	notifier  *NotificationService
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewExpenseService(
	store storage.Store,
	locker ledger.Locker,
	publisher events.Publisher,
	notifier *NotificationService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ExpenseService {
	return &ExpenseService{
		store:     store,
		lock:      groupLock{locker: locker, metrics: m},
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateExpense validates the proposal against the group's current members,
// stores the expense with its computed shares and applies it to balances.
// A rejected proposal leaves the ledger untouched.
func (s *ExpenseService) CreateExpense(ctx context.Context, in NewExpense) (*models.Expense, error) {
	logger := s.logger.With("group_id", in.GroupID, "payer_id", in.PayerID)
	logger.Info("CreateExpense request received", "amount", in.Amount, "split_kind", in.SplitKind)

	expense, err := s.createExpense(ctx, in)
	if err != nil {
		if isRejection(err) {
			s.metrics.ExpenseRejected(string(ledger.KindOf(err)))
			logger.Warn("Expense rejected", "error", err)
		} else {
			logger.Error("CreateExpense failed", "error", err)
		}
		return nil, err
	}

	s.metrics.ExpenseCreated(string(expense.SplitKind))
	logger.Info("Expense created", "expense_id", expense.ID, "shares", len(expense.Shares))

	s.notifyParticipants(ctx, expense)
	s.publish(ctx, events.ExpenseCreated{
		ExpenseID:  expense.ID,
		GroupID:    expense.GroupID,
		PayerID:    expense.PayerID,
		Amount:     expense.Amount,
		OccurredAt: time.Unix(expense.CreatedAt, 0).UTC(),
	})
	return expense, nil
}

func (s *ExpenseService) createExpense(ctx context.Context, in NewExpense) (*models.Expense, error) {
	kind, err := ledger.ParseSplitKind(in.SplitKind)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, ledger.Errorf(ledger.KindInvalidInput, "description is required")
	}

	var expense *models.Expense
	err = s.lock.with(ctx, in.GroupID, func(ctx context.Context) error {
		return s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			members, err := tx.GroupMembers(ctx, in.GroupID)
			if err != nil {
				return err
			}

			split, err := ledger.Validate(members, ledger.Proposal{
				PayerID:      in.PayerID,
				Amount:       in.Amount,
				Kind:         kind,
				Splits:       in.Splits,
				Participants: in.Participants,
			})
			if err != nil {
				return err
			}

			e := &models.Expense{
				ID:          uuid.New().String(),
				GroupID:     in.GroupID,
				PayerID:     in.PayerID,
				Amount:      in.Amount,
				Description: description,
				SplitKind:   split.Kind,
				Shares:      split.Shares,
				CreatedAt:   s.now().Unix(),
			}
			if err := tx.InsertExpense(ctx, e); err != nil {
				return err
			}

			entry := e.LedgerEntry()
			if err := ledger.Apply(ctx, tx, entry); err != nil {
				return err
			}
			e.Applied = entry.Applied
			expense = e
			return nil
		})
	})
	return expense, err
}

// DeleteExpense reverses an expense using its stored shares and marks it
// deleted, atomically.
func (s *ExpenseService) DeleteExpense(ctx context.Context, expenseID string) error {
	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if existing.Deleted() {
		return ledger.Errorf(ledger.KindNotFound, "expense %s not found", expenseID)
	}
	logger := s.logger.With("group_id", existing.GroupID, "expense_id", expenseID)

	err = s.lock.with(ctx, existing.GroupID, func(ctx context.Context) error {
		return s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			e, err := tx.GetExpense(ctx, expenseID)
			if err != nil {
				return err
			}
			if e.Deleted() {
				return ledger.Errorf(ledger.KindNotFound, "expense %s not found", expenseID)
			}
			if err := ledger.Reverse(ctx, tx, e.LedgerEntry()); err != nil {
				return err
			}
			return tx.MarkExpenseDeleted(ctx, expenseID, s.now())
		})
	})
	if err != nil {
		logger.Warn("DeleteExpense failed", "error", err)
		return err
	}

	s.metrics.ExpenseDeleted()
	logger.Info("Expense deleted")
	s.publish(ctx, events.ExpenseDeleted{
		ExpenseID:  expenseID,
		GroupID:    existing.GroupID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// ListExpenses returns a group's live expenses, oldest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.store.ListExpensesByGroup(ctx, groupID)
}

func (s *ExpenseService) notifyParticipants(ctx context.Context, e *models.Expense) {
	payerName := e.PayerID
	if payer, err := s.store.GetUserByID(ctx, e.PayerID); err == nil {
		payerName = payer.Username
	}
	groupName := e.GroupID
	if group, err := s.store.GetGroup(ctx, e.GroupID); err == nil {
		groupName = group.Name
	}

	message := fmt.Sprintf("%s added '%s' in %s", payerName, e.Description, groupName)
	for _, share := range e.Shares {
		if share.UserID == e.PayerID {
			continue
		}
		s.notifier.notifyQuietly(ctx, share.UserID, models.NotificationExpense, "New Expense Added", message)
	}
}

func (s *ExpenseService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "type", event.Type(), "error", err)
	}
}

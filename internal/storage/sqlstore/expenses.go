package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/models"
)

const expenseColumns = `id, group_id, payer_id, amount, description, split_kind, applied, created_at, deleted_at`

// GetExpense retrieves an expense by ID, including its shares. Deleted
// expenses are returned with DeletedAt set.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return getExpense(ctx, s.db, expenseID, "")
}

// ListExpensesByGroup returns the group's live expenses, oldest first.
func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	var one int
	if err := s.db.GetContext(ctx, &one, s.db.Rebind(`SELECT 1 FROM expense_groups WHERE id = ?`), groupID); err != nil {
		return nil, notFound(err, "group", groupID)
	}

	expenses := []*models.Expense{}
	err := s.db.SelectContext(ctx, &expenses, s.db.Rebind(`
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE group_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id
	`), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	for _, e := range expenses {
		if e.Shares, err = expenseShares(ctx, s.db, e.ID); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func getExpense(ctx context.Context, q queryer, expenseID, suffix string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := q.GetContext(ctx, expense,
		q.Rebind(`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`+suffix), expenseID)
	if err != nil {
		return nil, notFound(err, "expense", expenseID)
	}
	if expense.Shares, err = expenseShares(ctx, q, expenseID); err != nil {
		return nil, err
	}
	return expense, nil
}

func expenseShares(ctx context.Context, q queryer, expenseID string) ([]ledger.Share, error) {
	var shares []ledger.Share
	err := q.SelectContext(ctx, &shares,
		q.Rebind(`SELECT user_id, amount FROM expense_shares WHERE expense_id = ? ORDER BY user_id`), expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	return shares, nil
}

// InsertExpense stores a new, not yet applied expense and its shares.
func (t *sqlTx) InsertExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		expense.ID,
		expense.GroupID,
		expense.PayerID,
		expense.Amount,
		expense.Description,
		expense.SplitKind,
		expense.Applied,
		expense.CreatedAt,
		expense.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, share := range expense.Shares {
		_, err := t.tx.ExecContext(ctx,
			t.tx.Rebind(`INSERT INTO expense_shares (expense_id, user_id, amount) VALUES (?, ?, ?)`),
			expense.ID, share.UserID, share.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}
	return nil
}

// GetExpense reads an expense inside the transaction, locking its row.
func (t *sqlTx) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return getExpense(ctx, t.tx, expenseID, t.dialect.forUpdate())
}

// MarkExpenseDeleted stamps deleted_at on a live expense.
func (t *sqlTx) MarkExpenseDeleted(ctx context.Context, expenseID string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		t.tx.Rebind(`UPDATE expenses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`),
		at.Unix(), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectRows(res, "expense", expenseID)
}

// SetApplied records whether an expense's delta is in the balances.
func (t *sqlTx) SetApplied(ctx context.Context, expenseID string, applied bool) error {
	res, err := t.tx.ExecContext(ctx,
		t.tx.Rebind(`UPDATE expenses SET applied = ? WHERE id = ?`), applied, expenseID)
	if err != nil {
		return fmt.Errorf("failed to update expense state: %w", err)
	}
	return expectRows(res, "expense", expenseID)
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mmynk/grouppay/internal/ledger"
)

// sqlTx implements storage.Tx on a *sqlx.Tx.
type sqlTx struct {
	tx      *sqlx.Tx
	dialect dialect
}

type balanceRow struct {
	UserID string          `db:"user_id"`
	Amount decimal.Decimal `db:"amount"`
}

// GroupMembers returns the sorted member IDs of a group.
func (t *sqlTx) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	var one int
	if err := t.tx.GetContext(ctx, &one, t.tx.Rebind(`SELECT 1 FROM expense_groups WHERE id = ?`), groupID); err != nil {
		return nil, notFound(err, "group", groupID)
	}
	return groupMembers(ctx, t.tx, groupID)
}

// GroupBalances reads the balances of a group, locking the rows on
// PostgreSQL.
func (t *sqlTx) GroupBalances(ctx context.Context, groupID string) (ledger.Balances, error) {
	return groupBalances(ctx, t.tx, groupID, t.dialect.forUpdate())
}

// AdjustBalances adds delta to the stored balances of a group. Rows are
// touched in user ID order.
func (t *sqlTx) AdjustBalances(ctx context.Context, groupID string, delta ledger.Balances) error {
	users := make([]string, 0, len(delta))
	for id := range delta {
		users = append(users, id)
	}
	sort.Strings(users)

	for _, userID := range users {
		var current decimal.Decimal
		err := t.tx.GetContext(ctx, &current,
			t.tx.Rebind(`SELECT amount FROM balances WHERE group_id = ? AND user_id = ?`+t.dialect.forUpdate()),
			groupID, userID,
		)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read balance: %w", err)
		}

		next := current.Add(delta[userID])
		_, err = t.tx.ExecContext(ctx, t.tx.Rebind(`
			INSERT INTO balances (group_id, user_id, amount) VALUES (?, ?, ?)
			ON CONFLICT (group_id, user_id) DO UPDATE SET amount = excluded.amount
		`), groupID, userID, next.StringFixed(2))
		if err != nil {
			return fmt.Errorf("failed to write balance: %w", err)
		}
	}
	return nil
}

func groupBalances(ctx context.Context, q queryer, groupID, suffix string) (ledger.Balances, error) {
	var rows []balanceRow
	err := q.SelectContext(ctx, &rows,
		q.Rebind(`SELECT user_id, amount FROM balances WHERE group_id = ? ORDER BY user_id`+suffix), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balances: %w", err)
	}

	balances := make(ledger.Balances, len(rows))
	for _, r := range rows {
		balances[r.UserID] = r.Amount
	}
	return balances, nil
}

package models

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/grouppay/internal/ledger"
)

// Expense is a payment made by one member on behalf of several.
// Expenses are never edited. Deleting one reverses its effect on balances
// and stamps DeletedAt.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id" db:"id"`

	// GroupID is the group the expense belongs to.
	GroupID string `json:"groupId" db:"group_id"`

	// PayerID is the member who paid.
	PayerID string `json:"payerId" db:"payer_id"`

	// Amount is the total paid, positive with at most two decimal places.
	Amount decimal.Decimal `json:"amount" db:"amount"`

	Description string `json:"description" db:"description"`

	// SplitKind is how the amount was divided.
	SplitKind ledger.SplitKind `json:"splitKind" db:"split_kind"`

	// Shares is what each participant owes, as computed at creation time.
	// Balances are always derived from these stored values.
	Shares []ledger.Share `json:"shares" db:"-"`

	// Applied reports whether the shares are currently reflected in balances.
	Applied bool `json:"-" db:"applied"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt" db:"created_at"`

	// DeletedAt is set once the expense has been deleted.
	DeletedAt *int64 `json:"deletedAt,omitempty" db:"deleted_at"`
}

// LedgerEntry returns the view of e that the ledger applies and reverses.
func (e *Expense) LedgerEntry() *ledger.Entry {
	return &ledger.Entry{
		ID:      e.ID,
		GroupID: e.GroupID,
		PayerID: e.PayerID,
		Shares:  e.Shares,
		Applied: e.Applied,
	}
}

// Deleted reports whether the expense has been deleted.
func (e *Expense) Deleted() bool {
	return e.DeletedAt != nil
}

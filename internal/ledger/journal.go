package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Balances maps a user ID to a signed amount: positive is owed, negative owes.
type Balances map[string]decimal.Decimal

// Sum adds up every balance. For a consistent group it is zero.
func (b Balances) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// Entry is the part of an expense the ledger needs: who paid and the stored
// shares, plus whether its delta is currently in the balances.
type Entry struct {
	ID      string
	GroupID string
	PayerID string
	Shares  []Share
	Applied bool
}

// Journal receives balance deltas. Implementations must make AdjustBalances
// and SetApplied part of one atomic unit for a given Apply or Reverse call,
// typically by being a database transaction.
type Journal interface {
	AdjustBalances(ctx context.Context, groupID string, delta Balances) error
	SetApplied(ctx context.Context, entryID string, applied bool) error
}

// BalanceReader exposes the current balances of a group.
type BalanceReader interface {
	GroupBalances(ctx context.Context, groupID string) (Balances, error)
}

// Delta is the balance change e causes: the payer is credited with every
// other participant's share and each other participant is debited theirs. The
// payer's own share nets out, so the delta always sums to zero.
func Delta(e *Entry) Balances {
	delta := make(Balances, len(e.Shares)+1)
	credit := decimal.Zero
	for _, s := range e.Shares {
		if s.UserID == e.PayerID {
			continue
		}
		delta[s.UserID] = delta[s.UserID].Sub(s.Amount)
		credit = credit.Add(s.Amount)
	}
	delta[e.PayerID] = delta[e.PayerID].Add(credit)
	return delta
}

// Apply writes e's delta through j and marks it applied.
func Apply(ctx context.Context, j Journal, e *Entry) error {
	if e.Applied {
		return Errorf(KindInvalidState, "expense %s is already applied", e.ID)
	}
	if err := j.AdjustBalances(ctx, e.GroupID, Delta(e)); err != nil {
		return err
	}
	if err := j.SetApplied(ctx, e.ID, true); err != nil {
		return err
	}
	e.Applied = true
	return nil
}

// Reverse writes the negation of e's delta, computed from its stored shares,
// and marks it not applied.
func Reverse(ctx context.Context, j Journal, e *Entry) error {
	if !e.Applied {
		return Errorf(KindInvalidState, "expense %s is not applied", e.ID)
	}
	delta := Delta(e)
	for id, v := range delta {
		delta[id] = v.Neg()
	}
	if err := j.AdjustBalances(ctx, e.GroupID, delta); err != nil {
		return err
	}
	if err := j.SetApplied(ctx, e.ID, false); err != nil {
		return err
	}
	e.Applied = false
	return nil
}

// BalancesOf reads the balances of a group.
func BalancesOf(ctx context.Context, r BalanceReader, groupID string) (Balances, error) {
	return r.GroupBalances(ctx, groupID)
}

// MemoryJournal is an in-process Journal and BalanceReader.
type MemoryJournal struct {
	mu       sync.RWMutex
	balances map[string]Balances
	applied  map[string]bool
}

// NewMemoryJournal returns an empty MemoryJournal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		balances: make(map[string]Balances),
		applied:  make(map[string]bool),
	}
}

func (m *MemoryJournal) AdjustBalances(_ context.Context, groupID string, delta Balances) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.balances[groupID]
	if !ok {
		group = make(Balances)
		m.balances[groupID] = group
	}
	for id, v := range delta {
		group[id] = group[id].Add(v)
	}
	return nil
}

func (m *MemoryJournal) SetApplied(_ context.Context, entryID string, applied bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied[entryID] = applied
	return nil
}

// IsApplied reports the last state recorded for entryID.
func (m *MemoryJournal) IsApplied(entryID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applied[entryID]
}

// GroupBalances returns a copy of the group's balances.
func (m *MemoryJournal) GroupBalances(_ context.Context, groupID string) (Balances, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(Balances, len(m.balances[groupID]))
	for id, v := range m.balances[groupID] {
		out[id] = v
	}
	return out, nil
}

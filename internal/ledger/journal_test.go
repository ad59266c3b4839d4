package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryFor(t *testing.T, id, group string, members []string, p Proposal) *Entry {
	t.Helper()
	split, err := Validate(members, p)
	require.NoError(t, err)
	return &Entry{ID: id, GroupID: group, PayerID: p.PayerID, Shares: split.Shares}
}

func assertBalance(t *testing.T, b Balances, user, want string) {
	t.Helper()
	assert.True(t, b[user].Equal(d(want)), "balance of %s = %s, want %s", user, b[user], want)
}

func TestLedgerScenarios(t *testing.T) {
	ctx := context.Background()
	members := []string{"A", "B"}
	j := NewMemoryJournal()

	dinner := entryFor(t, "dinner", "g1", members, Proposal{PayerID: "A", Amount: d("100"), Kind: SplitEqual})
	require.NoError(t, Apply(ctx, j, dinner))

	b, err := BalancesOf(ctx, j, "g1")
	require.NoError(t, err)
	assertBalance(t, b, "A", "50")
	assertBalance(t, b, "B", "-50")

	t.Run("deleting dinner restores zero", func(t *testing.T) {
		require.NoError(t, Reverse(ctx, j, dinner))
		b, err := BalancesOf(ctx, j, "g1")
		require.NoError(t, err)
		assertBalance(t, b, "A", "0")
		assertBalance(t, b, "B", "0")
		require.NoError(t, Apply(ctx, j, dinner))
	})

	coffee := entryFor(t, "coffee", "g1", members, Proposal{
		PayerID: "B", Amount: d("30"), Kind: SplitExact,
		Splits: map[string]decimal.Decimal{"A": d("20"), "B": d("10")},
	})
	require.NoError(t, Apply(ctx, j, coffee))

	b, err = BalancesOf(ctx, j, "g1")
	require.NoError(t, err)
	assertBalance(t, b, "A", "30")
	assertBalance(t, b, "B", "-30")

	settlements := Solve(b)
	require.Len(t, settlements, 1)
	assert.Equal(t, "B", settlements[0].Payer)
	assert.Equal(t, "A", settlements[0].Payee)
	assert.True(t, settlements[0].Amount.Equal(d("30")))

	t.Run("mismatched split changes nothing", func(t *testing.T) {
		_, err := Validate(members, Proposal{
			PayerID: "A", Amount: d("30"), Kind: SplitExact,
			Splits: map[string]decimal.Decimal{"A": d("5")},
		})
		assert.ErrorIs(t, err, ErrSplitMismatch)

		after, err := BalancesOf(ctx, j, "g1")
		require.NoError(t, err)
		assert.Equal(t, b, after)
	})
}

func TestApply_RejectsDoubleApplyAndReverse(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	e := entryFor(t, "e1", "g", []string{"x", "y"}, Proposal{PayerID: "x", Amount: d("10"), Kind: SplitEqual})

	assert.ErrorIs(t, Reverse(ctx, j, e), ErrInvalidState)

	require.NoError(t, Apply(ctx, j, e))
	assert.True(t, j.IsApplied("e1"))
	assert.ErrorIs(t, Apply(ctx, j, e), ErrInvalidState)

	require.NoError(t, Reverse(ctx, j, e))
	assert.False(t, j.IsApplied("e1"))
	assert.ErrorIs(t, Reverse(ctx, j, e), ErrInvalidState)
}

func TestDelta_PayerOutsideShares(t *testing.T) {
	e := &Entry{ID: "e", GroupID: "g", PayerID: "p", Shares: []Share{
		{UserID: "q", Amount: d("12.50")},
		{UserID: "r", Amount: d("7.50")},
	}}
	delta := Delta(e)
	assertBalance(t, delta, "p", "20")
	assertBalance(t, delta, "q", "-12.50")
	assertBalance(t, delta, "r", "-7.50")
	assert.True(t, delta.Sum().IsZero())
}

func TestLedger_ZeroSumAndExactReversal(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	members := []string{"m1", "m2", "m3", "m4", "m5"}
	j := NewMemoryJournal()

	var entries []*Entry
	for i := 0; i < 200; i++ {
		payer := members[rng.Intn(len(members))]
		amount := decimal.New(int64(rng.Intn(100000)+1), -2)

		p := Proposal{PayerID: payer, Amount: amount, Kind: SplitEqual}
		if i%3 == 0 {
			p.Participants = []string{members[rng.Intn(len(members))]}
		}
		e := entryFor(t, fmt.Sprintf("e%d", i), "g", members, p)
		before, err := BalancesOf(ctx, j, "g")
		require.NoError(t, err)

		require.NoError(t, Apply(ctx, j, e))
		after, err := BalancesOf(ctx, j, "g")
		require.NoError(t, err)
		assert.True(t, after.Sum().IsZero(), "sum after %d expenses is %s", i+1, after.Sum())

		if i%5 == 0 {
			require.NoError(t, Reverse(ctx, j, e))
			restored, err := BalancesOf(ctx, j, "g")
			require.NoError(t, err)
			for _, m := range members {
				assert.True(t, restored[m].Equal(before[m]), "reversal of %s left %s at %s, want %s", e.ID, m, restored[m], before[m])
			}
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(a, b int) bool { return entries[a].ID < entries[b].ID })
	for _, e := range entries {
		require.NoError(t, Reverse(ctx, j, e))
	}
	final, err := BalancesOf(ctx, j, "g")
	require.NoError(t, err)
	for _, m := range members {
		assert.True(t, final[m].IsZero(), "%s left at %s", m, final[m])
	}
}

func TestMemoryJournal_GroupsAreIndependent(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	require.NoError(t, j.AdjustBalances(ctx, "g1", Balances{"a": d("5"), "b": d("-5")}))

	other, err := j.GroupBalances(ctx, "g2")
	require.NoError(t, err)
	assert.Empty(t, other)

	got, err := j.GroupBalances(ctx, "g1")
	require.NoError(t, err)
	got["a"] = d("1000")

	again, err := j.GroupBalances(ctx, "g1")
	require.NoError(t, err)
	assertBalance(t, again, "a", "5")
}

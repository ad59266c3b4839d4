package ledger

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestSolve(t *testing.T) {
	tests := []struct {
		name     string
		balances Balances
		want     []Settlement
	}{
		{
			name:     "empty",
			balances: Balances{},
			want:     []Settlement{},
		},
		{
			name:     "below a cent is settled",
			balances: Balances{"a": d("0.004"), "b": d("-0.004"), "c": d("0")},
			want:     []Settlement{},
		},
		{
			name:     "single cents are paid",
			balances: Balances{"a": d("-0.01"), "b": d("-0.01"), "c": d("0.02")},
			want: []Settlement{
				{Payer: "a", Payee: "c", Amount: d("0.01")},
				{Payer: "b", Payee: "c", Amount: d("0.01")},
			},
		},
		{
			name:     "two members",
			balances: Balances{"A": d("30"), "B": d("-30")},
			want:     []Settlement{{Payer: "B", Payee: "A", Amount: d("30")}},
		},
		{
			name:     "one creditor many debtors",
			balances: Balances{"a": d("60"), "b": d("-20"), "c": d("-40")},
			want: []Settlement{
				{Payer: "c", Payee: "a", Amount: d("40")},
				{Payer: "b", Payee: "a", Amount: d("20")},
			},
		},
		{
			name:     "reselects largest after each payment",
			balances: Balances{"a": d("50"), "b": d("40"), "c": d("-70"), "d": d("-20")},
			// c and d tie at 20 once a is paid, so c goes first.
			want: []Settlement{
				{Payer: "c", Payee: "a", Amount: d("50")},
				{Payer: "c", Payee: "b", Amount: d("20")},
				{Payer: "d", Payee: "b", Amount: d("20")},
			},
		},
		{
			name:     "ties broken by id",
			balances: Balances{"z": d("10"), "y": d("10"), "x": d("-10"), "w": d("-10")},
			want: []Settlement{
				{Payer: "w", Payee: "y", Amount: d("10")},
				{Payer: "x", Payee: "z", Amount: d("10")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Solve(tt.balances)
			if diff := cmp.Diff(tt.want, got, decimalEqual); diff != "" {
				t.Errorf("Solve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSolve_SettlesEverything(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 100; round++ {
		n := rng.Intn(8) + 2
		balances := make(Balances, n)
		sum := decimal.Zero
		for i := 0; i < n-1; i++ {
			v := decimal.New(int64(rng.Intn(20001)-10000), -2)
			balances[string(rune('a'+i))] = v
			sum = sum.Add(v)
		}
		balances[string(rune('a'+n-1))] = sum.Neg()

		settlements := Solve(balances)
		assert.LessOrEqual(t, len(settlements), n-1)

		remaining := make(Balances, n)
		for k, v := range balances {
			remaining[k] = v
		}
		for _, s := range settlements {
			require.True(t, s.Amount.IsPositive())
			require.NotEqual(t, s.Payer, s.Payee)
			remaining[s.Payer] = remaining[s.Payer].Add(s.Amount)
			remaining[s.Payee] = remaining[s.Payee].Sub(s.Amount)
		}
		for k, v := range remaining {
			assert.True(t, v.Abs().LessThanOrEqual(Epsilon), "round %d: %s left with %s", round, k, v)
		}

		again := Solve(balances)
		if diff := cmp.Diff(settlements, again, decimalEqual); diff != "" {
			t.Fatalf("Solve() not deterministic (-first +second):\n%s", diff)
		}
	}
}

func TestSolve_CentSplitSettlesToZero(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	members := []string{"A", "B", "C"}

	split, err := Validate(members, Proposal{PayerID: "C", Amount: d("0.02"), Kind: SplitEqual})
	require.NoError(t, err)
	require.NoError(t, Apply(ctx, j, &Entry{ID: "e1", GroupID: "g", PayerID: "C", Shares: split.Shares}))

	balances, err := BalancesOf(ctx, j, "g")
	require.NoError(t, err)
	settlements := Solve(balances)
	require.Len(t, settlements, 2)

	for _, s := range settlements {
		balances[s.Payer] = balances[s.Payer].Add(s.Amount)
		balances[s.Payee] = balances[s.Payee].Sub(s.Amount)
	}
	for id, v := range balances {
		assert.True(t, v.IsZero(), "%s left with %s", id, v)
	}
}

func TestSolve_DoesNotMutateInput(t *testing.T) {
	balances := Balances{"a": d("10"), "b": d("-10")}
	Solve(balances)
	assert.True(t, balances["a"].Equal(d("10")))
	assert.True(t, balances["b"].Equal(d("-10")))
}

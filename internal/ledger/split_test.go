package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sharesOf(t *testing.T, n *NormalizedSplit) map[string]string {
	t.Helper()
	out := make(map[string]string, len(n.Shares))
	for _, s := range n.Shares {
		out[s.UserID] = s.Amount.StringFixed(2)
	}
	return out
}

func TestValidate(t *testing.T) {
	members := []string{"alice", "bob", "carol"}

	tests := []struct {
		name     string
		proposal Proposal
		wantErr  error
		want     map[string]string
	}{
		{
			name:     "equal split over whole group",
			proposal: Proposal{PayerID: "alice", Amount: d("90"), Kind: SplitEqual},
			want:     map[string]string{"alice": "30.00", "bob": "30.00", "carol": "30.00"},
		},
		{
			name:     "equal split hands residual cents to lowest ids",
			proposal: Proposal{PayerID: "carol", Amount: d("100"), Kind: SplitEqual},
			want:     map[string]string{"alice": "33.34", "bob": "33.33", "carol": "33.33"},
		},
		{
			name:     "equal split over named participants includes payer",
			proposal: Proposal{PayerID: "alice", Amount: d("10.01"), Kind: SplitEqual, Participants: []string{"bob"}},
			want:     map[string]string{"alice": "5.01", "bob": "5.00"},
		},
		{
			name: "equal split takes names from split keys",
			proposal: Proposal{PayerID: "bob", Amount: d("50"), Kind: SplitEqual,
				Splits: map[string]decimal.Decimal{"carol": decimal.Zero}},
			want: map[string]string{"bob": "25.00", "carol": "25.00"},
		},
		{
			name: "exact split",
			proposal: Proposal{PayerID: "bob", Amount: d("30"), Kind: SplitExact,
				Splits: map[string]decimal.Decimal{"alice": d("20"), "bob": d("10")}},
			want: map[string]string{"alice": "20.00", "bob": "10.00"},
		},
		{
			name: "exact split within tolerance folds residual into payer",
			proposal: Proposal{PayerID: "bob", Amount: d("10"), Kind: SplitExact,
				Splits: map[string]decimal.Decimal{"alice": d("3.33"), "bob": d("3.33"), "carol": d("3.33")}},
			want: map[string]string{"alice": "3.33", "bob": "3.34", "carol": "3.33"},
		},
		{
			name: "exact split over amount without payer share",
			proposal: Proposal{PayerID: "bob", Amount: d("30"), Kind: SplitExact,
				Splits: map[string]decimal.Decimal{"alice": d("20"), "carol": d("10.01")}},
			want: map[string]string{"alice": "19.99", "carol": "10.01"},
		},
		{
			name: "exact split over amount with zero payer share",
			proposal: Proposal{PayerID: "bob", Amount: d("30"), Kind: SplitExact,
				Splits: map[string]decimal.Decimal{"alice": d("30.01"), "bob": decimal.Zero}},
			want: map[string]string{"alice": "30.00", "bob": "0.00"},
		},
		{
			name: "percentage split gives remainder to last id",
			proposal: Proposal{PayerID: "alice", Amount: d("100"), Kind: SplitPercentage,
				Splits: map[string]decimal.Decimal{"alice": d("33.33"), "bob": d("33.33"), "carol": d("33.34")}},
			want: map[string]string{"alice": "33.33", "bob": "33.33", "carol": "33.34"},
		},
		{
			name:     "zero amount",
			proposal: Proposal{PayerID: "alice", Amount: decimal.Zero, Kind: SplitEqual},
			wantErr:  ErrInvalidAmount,
		},
		{
			name:     "negative amount",
			proposal: Proposal{PayerID: "alice", Amount: d("-5"), Kind: SplitEqual},
			wantErr:  ErrInvalidAmount,
		},
		{
			name:     "sub-cent amount",
			proposal: Proposal{PayerID: "alice", Amount: d("1.005"), Kind: SplitEqual},
			wantErr:  ErrInvalidAmount,
		},
		{
			name:     "payer outside group",
			proposal: Proposal{PayerID: "mallory", Amount: d("10"), Kind: SplitEqual},
			wantErr:  ErrNonMember,
		},
		{
			name: "split participant outside group",
			proposal: Proposal{PayerID: "alice", Amount: d("10"), Kind: SplitExact,
				Splits: map[string]decimal.Decimal{"alice": d("5"), "mallory": d("5")}},
			wantErr: ErrNonMember,
		},
		{
			name:     "equal participant outside group",
			proposal: Proposal{PayerID: "alice", Amount: d("10"), Kind: SplitEqual, Participants: []string{"mallory"}},
			wantErr:  ErrNonMember,
		},
		{
			name: "exact split mismatch",
			proposal: Proposal{PayerID: "alice", Amount: d("30"), Kind: SplitExact,
				Splits: map[string]decimal.Decimal{"alice": d("5")}},
			wantErr: ErrSplitMismatch,
		},
		{
			name:     "exact split without shares",
			proposal: Proposal{PayerID: "alice", Amount: d("30"), Kind: SplitExact},
			wantErr:  ErrSplitMismatch,
		},
		{
			name: "negative exact share",
			proposal: Proposal{PayerID: "alice", Amount: d("10"), Kind: SplitExact,
				Splits: map[string]decimal.Decimal{"alice": d("15"), "bob": d("-5")}},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "percentages not adding to 100",
			proposal: Proposal{PayerID: "alice", Amount: d("10"), Kind: SplitPercentage,
				Splits: map[string]decimal.Decimal{"alice": d("50"), "bob": d("40")}},
			wantErr: ErrSplitMismatch,
		},
		{
			name:     "unknown kind",
			proposal: Proposal{PayerID: "alice", Amount: d("10"), Kind: "SHARES"},
			wantErr:  ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := Validate(members, tt.proposal)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, split)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sharesOf(t, split))
			assert.Equal(t, tt.proposal.Kind, split.Kind)
		})
	}
}

func TestValidate_EqualSharesAlwaysSumToAmount(t *testing.T) {
	members := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, amount := range []string{"0.01", "0.05", "1", "10", "99.99", "100", "123.45", "1000.01"} {
		for n := 1; n <= len(members); n++ {
			split, err := Validate(members[:n], Proposal{PayerID: "a", Amount: d(amount), Kind: SplitEqual})
			require.NoError(t, err)
			assert.True(t, split.Total().Equal(d(amount)), "amount %s over %d members summed to %s", amount, n, split.Total())
		}
	}
}

func TestValidate_ExactSharesAlwaysSumToAmount(t *testing.T) {
	members := []string{"a", "b", "c"}
	for _, splits := range []map[string]decimal.Decimal{
		{"a": d("20"), "b": d("10.01")},
		{"a": d("20"), "b": d("9.99")},
		{"b": d("15"), "c": d("15.01")},
		{"a": d("0"), "c": d("29.99")},
	} {
		split, err := Validate(members, Proposal{PayerID: "a", Amount: d("30"), Kind: SplitExact, Splits: splits})
		require.NoError(t, err)
		assert.True(t, split.Total().Equal(d("30")), "%v summed to %s", splits, split.Total())
		for _, s := range split.Shares {
			assert.False(t, s.Amount.IsNegative(), "%v: negative share for %s", splits, s.UserID)
		}
	}
}

func TestParseSplitKind(t *testing.T) {
	for _, s := range []string{"EQUAL", "EXACT", "PERCENTAGE"} {
		k, err := ParseSplitKind(s)
		require.NoError(t, err)
		assert.Equal(t, SplitKind(s), k)
	}

	_, err := ParseSplitKind("equal")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestErrorKindMatching(t *testing.T) {
	err := Errorf(KindSplitMismatch, "sum %s", "5")
	assert.ErrorIs(t, err, ErrSplitMismatch)
	assert.NotErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, KindSplitMismatch, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(assert.AnError))
	assert.Equal(t, "SplitMismatch: sum 5", err.Error())
}

package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SplitKind selects how an expense is divided between participants.
type SplitKind string

const (
	// SplitEqual divides the amount evenly between the participants.
	SplitEqual SplitKind = "EQUAL"
	// SplitExact takes per-member owed amounts from the caller.
	SplitExact SplitKind = "EXACT"
	// SplitPercentage takes per-member percentages that must add up to 100.
	SplitPercentage SplitKind = "PERCENTAGE"
)

// ParseSplitKind accepts the wire names of the supported kinds.
func ParseSplitKind(s string) (SplitKind, error) {
	switch k := SplitKind(s); k {
	case SplitEqual, SplitExact, SplitPercentage:
		return k, nil
	}
	return "", Errorf(KindInvalidInput, "unknown split kind %q", s)
}

// Proposal is an expense as submitted, before validation.
type Proposal struct {
	PayerID string
	Amount  decimal.Decimal
	Kind    SplitKind

	// Splits holds owed amounts for SplitExact and percentages for
	// SplitPercentage. For SplitEqual only its keys are used, as named
	// participants.
	Splits map[string]decimal.Decimal

	// Participants names the members sharing a SplitEqual expense, in
	// addition to any keys of Splits.
	Participants []string
}

// Share is the amount one member owes for an expense.
type Share struct {
	UserID string          `json:"userId" db:"user_id"`
	Amount decimal.Decimal `json:"amount" db:"amount"`
}

// NormalizedSplit is the validated division of an expense, ordered by user ID.
type NormalizedSplit struct {
	Kind   SplitKind
	Shares []Share
}

// Total is the sum of all shares.
func (n *NormalizedSplit) Total() decimal.Decimal {
	total := decimal.Zero
	for _, s := range n.Shares {
		total = total.Add(s.Amount)
	}
	return total
}

// Validate checks p against the group's member set and computes the shares.
// It has no side effects.
func Validate(members []string, p Proposal) (*NormalizedSplit, error) {
	if !p.Amount.IsPositive() {
		return nil, Errorf(KindInvalidAmount, "amount must be greater than zero, got %s", p.Amount)
	}
	if !isCents(p.Amount) {
		return nil, Errorf(KindInvalidAmount, "amount %s has more than two decimal places", p.Amount)
	}

	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}
	if !memberSet[p.PayerID] {
		return nil, Errorf(KindNonMember, "payer %s is not a member of the group", p.PayerID)
	}
	for _, id := range sortedKeys(p.Splits) {
		if !memberSet[id] {
			return nil, Errorf(KindNonMember, "user %s is not a member of the group", id)
		}
		if p.Splits[id].IsNegative() {
			return nil, Errorf(KindInvalidAmount, "split value for %s is negative", id)
		}
	}
	for _, id := range p.Participants {
		if !memberSet[id] {
			return nil, Errorf(KindNonMember, "user %s is not a member of the group", id)
		}
	}

	var (
		shares []Share
		err    error
	)
	switch p.Kind {
	case SplitEqual:
		shares = equalShares(p.Amount, equalParticipants(members, p))
	case SplitExact:
		shares, err = exactShares(p.Amount, p.PayerID, p.Splits)
	case SplitPercentage:
		shares, err = percentageShares(p.Amount, p.Splits)
	default:
		return nil, Errorf(KindInvalidInput, "unknown split kind %q", p.Kind)
	}
	if err != nil {
		return nil, err
	}

	return &NormalizedSplit{Kind: p.Kind, Shares: shares}, nil
}

// equalParticipants is the payer plus every named member, or the whole group
// when nobody is named.
func equalParticipants(members []string, p Proposal) []string {
	named := make(map[string]bool, len(p.Splits)+len(p.Participants))
	for id := range p.Splits {
		named[id] = true
	}
	for _, id := range p.Participants {
		named[id] = true
	}

	if len(named) == 0 {
		for _, m := range members {
			named[m] = true
		}
	} else {
		named[p.PayerID] = true
	}

	ids := make([]string, 0, len(named))
	for id := range named {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// equalShares floors each share to cents and hands the leftover cents, one
// each, to the first participants in ID order. ids must be sorted.
func equalShares(amount decimal.Decimal, ids []string) []Share {
	n := decimal.NewFromInt(int64(len(ids)))
	base := amount.Div(n).RoundFloor(2)
	residual := amount.Sub(base.Mul(n)).Div(cent).IntPart()

	shares := make([]Share, len(ids))
	for i, id := range ids {
		share := base
		if int64(i) < residual {
			share = share.Add(cent)
		}
		shares[i] = Share{UserID: id, Amount: share}
	}
	return shares
}

// exactShares keeps the given values and folds any residual within the
// tolerance into one share, so the shares always add up to amount. The payer's
// share absorbs it when present and it stays non-negative, otherwise the
// largest share does.
func exactShares(amount decimal.Decimal, payerID string, splits map[string]decimal.Decimal) ([]Share, error) {
	if len(splits) == 0 {
		return nil, Errorf(KindSplitMismatch, "exact split requires at least one share")
	}

	shares := make([]Share, 0, len(splits))
	total := decimal.Zero
	for _, id := range sortedKeys(splits) {
		v := splits[id]
		if !isCents(v) {
			return nil, Errorf(KindInvalidAmount, "split value for %s has more than two decimal places", id)
		}
		shares = append(shares, Share{UserID: id, Amount: v})
		total = total.Add(v)
	}

	residual := amount.Sub(total)
	if residual.Abs().GreaterThan(Epsilon) {
		return nil, Errorf(KindSplitMismatch, "sum of splits (%s) does not equal amount (%s)", total, amount)
	}
	if residual.IsZero() {
		return shares, nil
	}

	target := -1
	for i, sh := range shares {
		if sh.UserID == payerID && !sh.Amount.Add(residual).IsNegative() {
			target = i
			break
		}
	}
	if target < 0 {
		target = 0
		for i := 1; i < len(shares); i++ {
			if shares[i].Amount.GreaterThan(shares[target].Amount) {
				target = i
			}
		}
	}
	shares[target].Amount = shares[target].Amount.Add(residual)
	return shares, nil
}

// percentageShares rounds every share but the last (in ID order) to cents; the
// last one takes whatever is left so the shares add up to amount.
func percentageShares(amount decimal.Decimal, percents map[string]decimal.Decimal) ([]Share, error) {
	if len(percents) == 0 {
		return nil, Errorf(KindSplitMismatch, "percentage split requires at least one share")
	}

	totalPct := decimal.Zero
	for _, pct := range percents {
		totalPct = totalPct.Add(pct)
	}
	if totalPct.Sub(hundred).Abs().GreaterThan(Epsilon) {
		return nil, Errorf(KindSplitMismatch, "percentages add up to %s, want 100", totalPct)
	}

	ids := sortedKeys(percents)
	shares := make([]Share, len(ids))
	allocated := decimal.Zero
	for i, id := range ids {
		var share decimal.Decimal
		if i == len(ids)-1 {
			share = amount.Sub(allocated)
		} else {
			share = RoundCents(amount.Mul(percents[id]).Div(hundred))
			allocated = allocated.Add(share)
		}
		if share.IsNegative() {
			return nil, Errorf(KindSplitMismatch, "percentages leave a negative share for %s", id)
		}
		shares[i] = Share{UserID: id, Amount: share}
	}
	return shares, nil
}

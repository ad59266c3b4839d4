package ledger

import (
	"github.com/shopspring/decimal"
)

// Settlement is one suggested payment from a debtor to a creditor.
type Settlement struct {
	Payer  string          `json:"payer"`
	Payee  string          `json:"payee"`
	Amount decimal.Decimal `json:"amount"`
}

type position struct {
	userID string
	amount decimal.Decimal // magnitude, always positive
}

// Solve reduces balances to payments using greedy debt netting. At every step
// the largest debtor pays the largest creditor the smaller of the two
// magnitudes; ties go to the lower user ID. Only balances less than Epsilon
// away from zero are treated as settled, so a single cent is still paid. The result is deterministic for a given input and
// has at most len(balances)-1 entries.
func Solve(balances Balances) []Settlement {
	var creditors, debtors []position
	for _, id := range sortedKeys(balances) {
		v := balances[id]
		switch {
		case v.GreaterThanOrEqual(Epsilon):
			creditors = append(creditors, position{userID: id, amount: v})
		case v.LessThanOrEqual(Epsilon.Neg()):
			debtors = append(debtors, position{userID: id, amount: v.Neg()})
		}
	}

	settlements := []Settlement{}
	for len(creditors) > 0 && len(debtors) > 0 {
		ci := largest(creditors)
		di := largest(debtors)

		amount := decimal.Min(creditors[ci].amount, debtors[di].amount)
		settlements = append(settlements, Settlement{
			Payer:  debtors[di].userID,
			Payee:  creditors[ci].userID,
			Amount: amount,
		})

		creditors[ci].amount = creditors[ci].amount.Sub(amount)
		debtors[di].amount = debtors[di].amount.Sub(amount)

		if creditors[ci].amount.LessThan(Epsilon) {
			creditors = append(creditors[:ci], creditors[ci+1:]...)
		}
		if debtors[di].amount.LessThan(Epsilon) {
			debtors = append(debtors[:di], debtors[di+1:]...)
		}
	}
	return settlements
}

// largest returns the index of the biggest position. ps is kept in ascending
// ID order, so the first maximum found wins ties.
func largest(ps []position) int {
	best := 0
	for i := 1; i < len(ps); i++ {
		if ps[i].amount.GreaterThan(ps[best].amount) {
			best = i
		}
	}
	return best
}

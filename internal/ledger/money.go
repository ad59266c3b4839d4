package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// Epsilon is the tolerance used for split sums and for treating a balance as settled.
	Epsilon = decimal.New(1, -2)

	cent    = decimal.New(1, -2)
	hundred = decimal.NewFromInt(100)
)

// isCents reports whether d has no more than two decimal places.
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package ledger is the expense ledger and settlement engine.
//
// It has three parts that only depend on each other and on decimal money:
//
//   - Validate turns a proposed expense into a NormalizedSplit or rejects it
//     with an *Error carrying an ErrorKind.
//   - Apply and Reverse move an Entry's balance delta through a Journal, which
//     is normally a storage transaction.
//   - Solve reduces a group's balances to an ordered list of Settlements.
//
// Callers serialize mutations per group with a Locker. The package holds no
// global state.
package ledger

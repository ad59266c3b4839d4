// Package models defines the persisted records of GroupPay.
//
// Users belong to groups. A group owns expenses, and every expense stores the
// shares it was split into when it was recorded. Balances and settlements are
// derived from those shares by the ledger package and are not modelled here.
//
// Relationships are expressed with ID strings rather than pointers. Timestamps
// are Unix seconds.
package models

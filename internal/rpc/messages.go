package rpc

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/service"
)

type CreateExpenseRequest struct {
	GroupID      string                     `json:"groupId"`
	PayerID      string                     `json:"payerId"`
	Amount       decimal.Decimal            `json:"amount"`
	Description  string                     `json:"description"`
	SplitKind    string                     `json:"splitKind"`
	Splits       map[string]decimal.Decimal `json:"splits,omitempty"`
	Participants []string                   `json:"participants,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *models.Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListExpensesResponse struct {
	Expenses []*models.Expense `json:"expenses"`
}

type GetBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GetBalancesResponse struct {
	Balances []service.MemberBalance `json:"balances"`
}

type GetSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type GetSettlementsResponse struct {
	Settlements []ledger.Settlement `json:"settlements"`
}

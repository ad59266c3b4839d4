package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/grouppay/internal/middleware"
	"github.com/mmynk/grouppay/internal/service"
)

// CreateExpenseRequest represents the request body for a new expense.
type CreateExpenseRequest struct {
	GroupID      string                     `json:"groupId"`
	PayerID      string                     `json:"payerId"`
	Amount       decimal.Decimal            `json:"amount"`
	Description  string                     `json:"description"`
	SplitKind    string                     `json:"splitKind"`
	Splits       map[string]decimal.Decimal `json:"splits,omitempty"`
	Participants []string                   `json:"participants,omitempty"`
}

// CreateExpense records an expense and applies it to the group's balances.
// POST /expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	expense, err := h.expenses.CreateExpense(r.Context(), service.NewExpense{
		GroupID:      req.GroupID,
		PayerID:      req.PayerID,
		Amount:       req.Amount,
		Description:  req.Description,
		SplitKind:    req.SplitKind,
		Splits:       req.Splits,
		Participants: req.Participants,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, expense)
}

// DeleteExpense removes an expense and reverses its effect.
// DELETE /expenses/{expenseID}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.expenses.DeleteExpense(r.Context(), chi.URLParam(r, "expenseID")); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListExpenses returns a group's expenses.
// GET /groups/{groupID}/expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenses.ListExpenses(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, expenses)
}

// GetBalances returns per-member balances.
// GET /groups/{groupID}/balances
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.balances.GetBalances(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, balances)
}

// GetSettlements returns the payments that settle a group.
// GET /groups/{groupID}/settlements
func (h *Handler) GetSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.balances.GetSettlements(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, settlements)
}

// SendReminder notifies a member that the caller is waiting on a payment.
// POST /groups/{groupID}/reminders/{userID}
func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	err := h.balances.SendReminder(r.Context(),
		chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Package handler implements the GroupPay REST endpoints on top of the
// service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/grouppay/internal/auth"
	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/service"
)

// DefaultTimeout bounds how long a single request may run.
const DefaultTimeout = 30 * time.Second

// Handler serves every REST endpoint.
type Handler struct {
	auth          *service.AuthService
	groups        *service.GroupService
	expenses      *service.ExpenseService
	balances      *service.BalanceService
	notifications *service.NotificationService
	logger        *slog.Logger

	exposeResetTokens bool
}

// Services groups the dependencies of a Handler.
type Services struct {
	Auth          *service.AuthService
	Groups        *service.GroupService
	Expenses      *service.ExpenseService
	Balances      *service.BalanceService
	Notifications *service.NotificationService
}

// Option configures a Handler.
type Option func(*Handler)

// WithExposedResetTokens makes forgot-password return the issued reset
// token in its response body. Without it the token only reaches the logs.
func WithExposedResetTokens(expose bool) Option {
	return func(h *Handler) { h.exposeResetTokens = expose }
}

// New creates a Handler.
func New(svc Services, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		auth:          svc.Auth,
		groups:        svc.Groups,
		expenses:      svc.Expenses,
		balances:      svc.Balances,
		notifications: svc.Notifications,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Helper function to send JSON responses.
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps service errors to status codes in one place.
func (h *Handler) respondWithError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Unhandled service error", "error", err)
		message = "Internal server error"
	}
	h.respondWithJSON(w, status, errorResponse{Error: message, Kind: kind})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "Unauthenticated"
	case errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict, "EmailExists"
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, "WeakPassword"
	case errors.Is(err, auth.ErrResetTokenInvalid):
		return http.StatusBadRequest, "InvalidResetToken"
	}

	switch kind := ledger.KindOf(err); kind {
	case ledger.KindInvalidAmount, ledger.KindNonMember, ledger.KindSplitMismatch,
		ledger.KindDuplicateMember, ledger.KindInvalidInput:
		return http.StatusBadRequest, string(kind)
	case ledger.KindNotFound:
		return http.StatusNotFound, string(kind)
	}
	return http.StatusInternalServerError, "Internal"
}

// decode reads a JSON request body into v. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ledger.Errorf(ledger.KindInvalidInput, "invalid request body: %v", err)
	}
	return nil
}

// Health reports that the process is serving.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

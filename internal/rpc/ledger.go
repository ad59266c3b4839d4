// Package rpc exposes the expense ledger as the Connect service
// grouppay.v1.LedgerService.
package rpc

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/middleware"
	"github.com/mmynk/grouppay/internal/service"
)

const (
	// LedgerServiceName is the fully-qualified name of the service.
	LedgerServiceName = "grouppay.v1.LedgerService"

	CreateExpenseProcedure  = "/grouppay.v1.LedgerService/CreateExpense"
	DeleteExpenseProcedure  = "/grouppay.v1.LedgerService/DeleteExpense"
	ListExpensesProcedure   = "/grouppay.v1.LedgerService/ListExpenses"
	GetBalancesProcedure    = "/grouppay.v1.LedgerService/GetBalances"
	GetSettlementsProcedure = "/grouppay.v1.LedgerService/GetSettlements"
)

// LedgerServer implements LedgerService on top of the service layer.
type LedgerServer struct {
	expenses *service.ExpenseService
	balances *service.BalanceService
}

func NewLedgerServer(expenses *service.ExpenseService, balances *service.BalanceService) *LedgerServer {
	return &LedgerServer{expenses: expenses, balances: balances}
}

func (s *LedgerServer) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	m := req.Msg
	expense, err := s.expenses.CreateExpense(ctx, service.NewExpense{
		GroupID:      m.GroupID,
		PayerID:      m.PayerID,
		Amount:       m.Amount,
		Description:  m.Description,
		SplitKind:    m.SplitKind,
		Splits:       m.Splits,
		Participants: m.Participants,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateExpenseResponse{Expense: expense}), nil
}

func (s *LedgerServer) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	if err := s.expenses.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteExpenseResponse{}), nil
}

func (s *LedgerServer) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	expenses, err := s.expenses.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListExpensesResponse{Expenses: expenses}), nil
}

func (s *LedgerServer) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	balances, err := s.balances.GetBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetBalancesResponse{Balances: balances}), nil
}

func (s *LedgerServer) GetSettlements(ctx context.Context, req *connect.Request[GetSettlementsRequest]) (*connect.Response[GetSettlementsResponse], error) {
	settlements, err := s.balances.GetSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if settlements == nil {
		settlements = []ledger.Settlement{}
	}
	return connect.NewResponse(&GetSettlementsResponse{Settlements: settlements}), nil
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself. Every procedure requires a bearer token.
func NewLedgerServiceHandler(srv *LedgerServer, authorizer middleware.Authorizer, logger *slog.Logger) (string, http.Handler) {
	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(
			middleware.LoggingInterceptor(logger),
			middleware.RequireAuth(authorizer),
		),
	}

	createExpense := connect.NewUnaryHandler(CreateExpenseProcedure, srv.CreateExpense, opts...)
	deleteExpense := connect.NewUnaryHandler(DeleteExpenseProcedure, srv.DeleteExpense, opts...)
	listExpenses := connect.NewUnaryHandler(ListExpensesProcedure, srv.ListExpenses, opts...)
	getBalances := connect.NewUnaryHandler(GetBalancesProcedure, srv.GetBalances, opts...)
	getSettlements := connect.NewUnaryHandler(GetSettlementsProcedure, srv.GetSettlements, opts...)

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CreateExpenseProcedure:
			createExpense.ServeHTTP(w, r)
		case DeleteExpenseProcedure:
			deleteExpense.ServeHTTP(w, r)
		case ListExpensesProcedure:
			listExpenses.ServeHTTP(w, r)
		case GetBalancesProcedure:
			getBalances.ServeHTTP(w, r)
		case GetSettlementsProcedure:
			getSettlements.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// toConnectError maps service errors to Connect codes.
func toConnectError(err error) error {
	code := connect.CodeInternal
	switch ledger.KindOf(err) {
	case ledger.KindInvalidAmount, ledger.KindNonMember, ledger.KindSplitMismatch, ledger.KindInvalidInput:
		code = connect.CodeInvalidArgument
	case ledger.KindDuplicateMember:
		code = connect.CodeAlreadyExists
	case ledger.KindNotFound:
		code = connect.CodeNotFound
	}
	return connect.NewError(code, err)
}

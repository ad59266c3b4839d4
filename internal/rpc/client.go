package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// LedgerClient is a client for grouppay.v1.LedgerService.
type LedgerClient struct {
	createExpense  *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	deleteExpense  *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	listExpenses   *connect.Client[ListExpensesRequest, ListExpensesResponse]
	getBalances    *connect.Client[GetBalancesRequest, GetBalancesResponse]
	getSettlements *connect.Client[GetSettlementsRequest, GetSettlementsResponse]
}

// NewLedgerClient constructs a client for the service at baseURL, for
// example http://localhost:8080.
func NewLedgerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &LedgerClient{
		createExpense:  connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+CreateExpenseProcedure, opts...),
		deleteExpense:  connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+DeleteExpenseProcedure, opts...),
		listExpenses:   connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+ListExpensesProcedure, opts...),
		getBalances:    connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+GetBalancesProcedure, opts...),
		getSettlements: connect.NewClient[GetSettlementsRequest, GetSettlementsResponse](httpClient, baseURL+GetSettlementsProcedure, opts...),
	}
}

func (c *LedgerClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *LedgerClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *LedgerClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *LedgerClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *LedgerClient) GetSettlements(ctx context.Context, req *connect.Request[GetSettlementsRequest]) (*connect.Response[GetSettlementsResponse], error) {
	return c.getSettlements.CallUnary(ctx, req)
}

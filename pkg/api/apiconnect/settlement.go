package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService.
const SettlementServiceName = "splitsettle.v1.SettlementService"

const (
	SettlementServiceCreateSettlementProcedure  = "/splitsettle.v1.SettlementService/CreateSettlement"
	SettlementServiceListSettlementsProcedure   = "/splitsettle.v1.SettlementService/ListSettlements"
	SettlementServiceDeleteSettlementProcedure  = "/splitsettle.v1.SettlementService/DeleteSettlement"
	SettlementServiceGetBalancesProcedure       = "/splitsettle.v1.SettlementService/GetBalances"
	SettlementServiceSuggestSettlementProcedure = "/splitsettle.v1.SettlementService/SuggestSettlement"
	SettlementServiceSimplifyDebtsProcedure     = "/splitsettle.v1.SettlementService/SimplifyDebts"
)

// SettlementServiceHandler records settlements and answers balance and settle-up queries.
type SettlementServiceHandler interface {
	CreateSettlement(context.Context, *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	DeleteSettlement(context.Context, *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	SuggestSettlement(context.Context, *connect.Request[api.SuggestSettlementRequest]) (*connect.Response[api.SuggestSettlementResponse], error)
	SimplifyDebts(context.Context, *connect.Request[api.SimplifyDebtsRequest]) (*connect.Response[api.SimplifyDebtsResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler for svc. It returns the path to
// mount it on.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	handlers := map[string]http.Handler{
		SettlementServiceCreateSettlementProcedure:  connect.NewUnaryHandler(SettlementServiceCreateSettlementProcedure, svc.CreateSettlement, opts...),
		SettlementServiceListSettlementsProcedure:   connect.NewUnaryHandler(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts...),
		SettlementServiceDeleteSettlementProcedure:  connect.NewUnaryHandler(SettlementServiceDeleteSettlementProcedure, svc.DeleteSettlement, opts...),
		SettlementServiceGetBalancesProcedure:       connect.NewUnaryHandler(SettlementServiceGetBalancesProcedure, svc.GetBalances, opts...),
		SettlementServiceSuggestSettlementProcedure: connect.NewUnaryHandler(SettlementServiceSuggestSettlementProcedure, svc.SuggestSettlement, opts...),
		SettlementServiceSimplifyDebtsProcedure:     connect.NewUnaryHandler(SettlementServiceSimplifyDebtsProcedure, svc.SimplifyDebts, opts...),
	}
	return "/" + SettlementServiceName + "/", route(handlers)
}

// SettlementServiceClient calls a remote SettlementService.
type SettlementServiceClient interface {
	CreateSettlement(context.Context, *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	DeleteSettlement(context.Context, *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	SuggestSettlement(context.Context, *connect.Request[api.SuggestSettlementRequest]) (*connect.Response[api.SuggestSettlementResponse], error)
	SimplifyDebts(context.Context, *connect.Request[api.SimplifyDebtsRequest]) (*connect.Response[api.SimplifyDebtsResponse], error)
}

// NewSettlementServiceClient returns a client for the SettlementService at baseURL
// (e.g. http://localhost:8080).
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &settlementServiceClient{
		createSettlement:  connect.NewClient[api.CreateSettlementRequest, api.CreateSettlementResponse](httpClient, baseURL+SettlementServiceCreateSettlementProcedure, opts...),
		listSettlements:   connect.NewClient[api.ListSettlementsRequest, api.ListSettlementsResponse](httpClient, baseURL+SettlementServiceListSettlementsProcedure, opts...),
		deleteSettlement:  connect.NewClient[api.DeleteSettlementRequest, api.DeleteSettlementResponse](httpClient, baseURL+SettlementServiceDeleteSettlementProcedure, opts...),
		getBalances:       connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+SettlementServiceGetBalancesProcedure, opts...),
		suggestSettlement: connect.NewClient[api.SuggestSettlementRequest, api.SuggestSettlementResponse](httpClient, baseURL+SettlementServiceSuggestSettlementProcedure, opts...),
		simplifyDebts:     connect.NewClient[api.SimplifyDebtsRequest, api.SimplifyDebtsResponse](httpClient, baseURL+SettlementServiceSimplifyDebtsProcedure, opts...),
	}
}

type settlementServiceClient struct {
	createSettlement  *connect.Client[api.CreateSettlementRequest, api.CreateSettlementResponse]
	listSettlements   *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
	deleteSettlement  *connect.Client[api.DeleteSettlementRequest, api.DeleteSettlementResponse]
	getBalances       *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	suggestSettlement *connect.Client[api.SuggestSettlementRequest, api.SuggestSettlementResponse]
	simplifyDebts     *connect.Client[api.SimplifyDebtsRequest, api.SimplifyDebtsResponse]
}

func (c *settlementServiceClient) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	return c.createSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *settlementServiceClient) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	return c.deleteSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *settlementServiceClient) SuggestSettlement(ctx context.Context, req *connect.Request[api.SuggestSettlementRequest]) (*connect.Response[api.SuggestSettlementResponse], error) {
	return c.suggestSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) SimplifyDebts(ctx context.Context, req *connect.Request[api.SimplifyDebtsRequest]) (*connect.Response[api.SimplifyDebtsResponse], error) {
	return c.simplifyDebts.CallUnary(ctx, req)
}

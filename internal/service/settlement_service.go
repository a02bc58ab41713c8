package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/authz"
	"github.com/mmynk/splitsettle/internal/ledger"
	"github.com/mmynk/splitsettle/internal/metrics"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/pkg/api"
	"github.com/mmynk/splitsettle/pkg/api/apiconnect"
)

var _ apiconnect.SettlementServiceHandler = (*SettlementService)(nil)

// SettlementService implements the Connect SettlementService. Balances are
// recomputed from the stored history on every request.
type SettlementService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewSettlementService creates a new SettlementService. m may be nil.
func NewSettlementService(store storage.Store, m *metrics.Metrics) *SettlementService {
	return &SettlementService{store: store, metrics: m}
}

// CreateSettlement records a payment between two participants.
func (s *SettlementService) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	slog.Info("CreateSettlement request received",
		"group_id", req.Msg.GroupID,
		"from_user_id", req.Msg.FromUserID,
		"to_user_id", req.Msg.ToUserID,
		"amount", req.Msg.Amount,
	)

	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	group, err := groupAccess(ctx, s.store, user, req.Msg.GroupID, authz.ActionCreate, authz.KindSettlement)
	if err != nil {
		return nil, toConnectError(err)
	}

	amount, err := ledger.ParseAmount(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	settlement := &models.Settlement{
		GroupID:    group.ID,
		FromUserID: req.Msg.FromUserID,
		ToUserID:   req.Msg.ToUserID,
		Amount:     amount,
		Method:     strings.TrimSpace(req.Msg.Method),
		Notes:      req.Msg.Notes,
		CreatedBy:  user.ID,
	}
	if req.Msg.Date != nil {
		settlement.Date = req.Msg.Date.UTC().Truncate(time.Second)
	}
	if err := ledger.ValidateSettlement(settlement); err != nil {
		return nil, toConnectError(err)
	}
	if err := ledger.CheckSettlementMembers(group, settlement); err != nil {
		slog.Warn("CreateSettlement rejected", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("CreateSettlement failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Settlement created", "settlement_id", settlement.ID, "group_id", group.ID)
	return connect.NewResponse(&api.CreateSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns a group's settlements in the order they were recorded.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	group, err := groupAccess(ctx, s.store, user, req.Msg.GroupID, authz.ActionRead, authz.KindSettlement)
	if err != nil {
		return nil, toConnectError(err)
	}

	settlements, err := s.store.ListGroupSettlements(ctx, group.ID)
	if err != nil {
		slog.Error("ListSettlements failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// DeleteSettlement removes a settlement recorded by mistake.
func (s *SettlementService) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	slog.Info("DeleteSettlement request received", "settlement_id", req.Msg.SettlementID)

	if req.Msg.SettlementID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("settlement_id required"))
	}
	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	settlement, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, err := groupAccess(ctx, s.store, user, settlement.GroupID, authz.ActionDelete, authz.KindSettlement); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteSettlement(ctx, settlement.ID); err != nil {
		slog.Error("DeleteSettlement failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Settlement deleted", "settlement_id", settlement.ID)
	return connect.NewResponse(&api.DeleteSettlementResponse{}), nil
}

// balances loads the group's ledger concurrently, checks read access and
// folds it into a BalanceSheet.
func (s *SettlementService) balances(ctx context.Context, groupID string) (*models.User, *models.Group, ledger.BalanceSheet, error) {
	if groupID == "" {
		return nil, nil, nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id required"))
	}
	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, nil, nil, err
	}

	l, err := loadLedger(ctx, s.store, groupID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := authorize(user, authz.ActionRead, authz.Resource{Kind: authz.KindGroup, Group: l.group}); err != nil {
		return nil, nil, nil, err
	}

	sheet, err := ledger.ComputeBalances(l.group, l.expenses, l.settlements)
	s.metrics.ObserveBalance(err)
	if err != nil {
		slog.Error("Balance computation failed", "group_id", groupID, "error", err)
		return nil, nil, nil, err
	}
	return user, l.group, sheet, nil
}

// GetBalances returns every participant's net balance in the group.
func (s *SettlementService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	_, group, sheet, err := s.balances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	balances := make(map[string]json.Number, len(sheet))
	for id, amount := range sheet {
		balances[id] = json.Number(money(amount))
	}
	return connect.NewResponse(&api.GetBalancesResponse{
		GroupID:      group.ID,
		Participants: sheet.Members(group.Participants),
		Balances:     balances,
	}), nil
}

// SuggestSettlement proposes a payment that settles the caller up, or, with a
// counterparty, evens out the caller and that participant.
func (s *SettlementService) SuggestSettlement(ctx context.Context, req *connect.Request[api.SuggestSettlementRequest]) (*connect.Response[api.SuggestSettlementResponse], error) {
	slog.Info("SuggestSettlement request received",
		"group_id", req.Msg.GroupID,
		"counterparty_id", req.Msg.CounterpartyID,
	)

	user, group, sheet, err := s.balances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	// Admins may read any group, but only a participant can settle in it.
	if !group.HasParticipant(user.ID) {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("%s is not a participant of group %s", user.ID, group.ID))
	}

	var suggestion ledger.Suggestion
	var ok bool
	if req.Msg.CounterpartyID != "" {
		if !group.HasParticipant(req.Msg.CounterpartyID) {
			err := &ledger.ValidationError{Field: "counterparty_id", Reason: req.Msg.CounterpartyID + " is not a participant"}
			return nil, toConnectError(err)
		}
		suggestion, ok = ledger.SuggestSettlementWith(user.ID, req.Msg.CounterpartyID, sheet)
	} else {
		suggestion, ok = ledger.SuggestSettlement(user.ID, sheet, group.Participants)
	}

	resp := &api.SuggestSettlementResponse{}
	if ok {
		resp.Suggestion = toAPIPayment(suggestion.FromUserID, suggestion.ToUserID, suggestion.Amount)
	}
	return connect.NewResponse(resp), nil
}

// SimplifyDebts returns a short list of payments that settles the whole group.
func (s *SettlementService) SimplifyDebts(ctx context.Context, req *connect.Request[api.SimplifyDebtsRequest]) (*connect.Response[api.SimplifyDebtsResponse], error) {
	_, group, sheet, err := s.balances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	transfers := ledger.SimplifyDebts(sheet, group.Participants)
	return connect.NewResponse(&api.SimplifyDebtsResponse{Transfers: toAPITransfers(transfers)}), nil
}

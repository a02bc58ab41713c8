package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/authz"
	"github.com/mmynk/splitsettle/internal/ledger"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/pkg/api"
	"github.com/mmynk/splitsettle/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// DefaultCategory is used when an expense is created without one.
const DefaultCategory = "general"

// ExpenseService implements the Connect ExpenseService
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// expenseFields are the client-supplied fields shared by create and update.
type expenseFields struct {
	description       string
	amount            string
	paidBy            string
	category          string
	date              *time.Time
	splits            []api.Split
	items             []api.Item
	splitEquallyAmong []string
}

// build parses fields into e and validates the result against group.
func (f expenseFields) build(e *models.Expense, group *models.Group) error {
	amount, err := ledger.ParseAmount(f.amount)
	if err != nil {
		return err
	}

	var splits []models.Split
	switch {
	case len(f.splits) > 0:
		splits = make([]models.Split, len(f.splits))
		for i, s := range f.splits {
			share, err := ledger.ParseAmount(s.Amount)
			if err != nil {
				return &ledger.ValidationError{Field: "splits", Reason: "share for " + s.UserID + ": " + err.Error()}
			}
			splits[i] = models.Split{UserID: s.UserID, Amount: share}
		}
	case len(f.items) > 0:
		items := make([]ledger.Item, len(f.items))
		for i, it := range f.items {
			price, err := ledger.ParseAmount(it.Amount)
			if err != nil {
				return &ledger.ValidationError{Field: "items", Reason: "price of " + it.Description + ": " + err.Error()}
			}
			items[i] = ledger.Item{Description: it.Description, Amount: price, AssignedTo: it.AssignedTo}
		}
		if splits, err = ledger.ItemizedSplits(items, amount, group.Participants); err != nil {
			return err
		}
	case len(f.splitEquallyAmong) > 0:
		if splits, err = ledger.EqualSplits(amount, f.splitEquallyAmong); err != nil {
			return err
		}
	}

	e.Description = strings.TrimSpace(f.description)
	e.Amount = amount
	e.PaidBy = f.paidBy
	e.Category = strings.TrimSpace(f.category)
	if e.Category == "" {
		e.Category = DefaultCategory
	}
	if f.date != nil {
		e.Date = f.date.UTC().Truncate(time.Second)
	}
	e.Splits = splits

	if err := ledger.ValidateExpense(e); err != nil {
		return err
	}
	return ledger.CheckExpenseMembers(group, e)
}

// CreateExpense records a new expense in a group.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"paid_by", req.Msg.PaidBy,
		"splits_count", len(req.Msg.Splits),
	)

	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	group, err := groupAccess(ctx, s.store, user, req.Msg.GroupID, authz.ActionCreate, authz.KindExpense)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense := &models.Expense{GroupID: group.ID}
	fields := expenseFields{
		description:       req.Msg.Description,
		amount:            req.Msg.Amount,
		paidBy:            req.Msg.PaidBy,
		category:          req.Msg.Category,
		date:              req.Msg.Date,
		splits:            req.Msg.Splits,
		items:             req.Msg.Items,
		splitEquallyAmong: req.Msg.SplitEquallyAmong,
	}
	if err := fields.build(expense, group); err != nil {
		slog.Warn("CreateExpense rejected", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", group.ID)
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// expenseAccess loads an expense with its group and checks the caller's permission.
func (s *ExpenseService) expenseAccess(ctx context.Context, expenseID string, action authz.Action) (*models.Expense, *models.Group, error) {
	if expenseID == "" {
		return nil, nil, connect.NewError(connect.CodeInvalidArgument, errors.New("expense_id required"))
	}
	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, nil, err
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	group, err := groupAccess(ctx, s.store, user, expense.GroupID, action, authz.KindExpense)
	if err != nil {
		return nil, nil, err
	}
	return expense, group, nil
}

// GetExpense retrieves an expense by ID.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, _, err := s.expenseAccess(ctx, req.Msg.ExpenseID, authz.ActionRead)
	if err != nil {
		slog.Warn("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// UpdateExpense replaces an expense. Its group cannot change.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	slog.Info("UpdateExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, group, err := s.expenseAccess(ctx, req.Msg.ExpenseID, authz.ActionUpdate)
	if err != nil {
		return nil, toConnectError(err)
	}

	fields := expenseFields{
		description:       req.Msg.Description,
		amount:            req.Msg.Amount,
		paidBy:            req.Msg.PaidBy,
		category:          req.Msg.Category,
		date:              req.Msg.Date,
		splits:            req.Msg.Splits,
		items:             req.Msg.Items,
		splitEquallyAmong: req.Msg.SplitEquallyAmong,
	}
	if err := fields.build(expense, group); err != nil {
		slog.Warn("UpdateExpense rejected", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		slog.Error("UpdateExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense updated", "expense_id", expense.ID)
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, _, err := s.expenseAccess(ctx, req.Msg.ExpenseID, authz.ActionDelete)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns a group's expenses in the order they were recorded.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	group, err := groupAccess(ctx, s.store, user, req.Msg.GroupID, authz.ActionRead, authz.KindExpense)
	if err != nil {
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListGroupExpenses(ctx, group.ID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// Package api defines the request and response messages exchanged over the
// splitsettle Connect services. Messages travel as JSON; money amounts are
// decimal strings so no precision is lost on the wire.
package api

import (
	"encoding/json"
	"time"
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"createdAt"`
}

type Group struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	CreatedBy    string   `json:"createdBy"`
	Participants []string `json:"participants"`
	CreatedAt    int64    `json:"createdAt"`
}

// Split is one participant's share of an expense.
type Split struct {
	UserID string `json:"userId"`
	Amount string `json:"amount"`
}

type Expense struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	PaidBy      string    `json:"paidBy"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Splits      []Split   `json:"splits"`
}

type Settlement struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"groupId"`
	FromUserID string    `json:"fromUserId"`
	ToUserID   string    `json:"toUserId"`
	Amount     string    `json:"amount"`
	Method     string    `json:"method"`
	Notes      string    `json:"notes,omitempty"`
	Date       time.Time `json:"date"`
	CreatedBy  string    `json:"createdBy,omitempty"`
}

// Payment is a proposed transfer: a settle-up suggestion or one step of a
// simplified plan.
type Payment struct {
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Amount     string `json:"amount"`
}

// Auth

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Groups

type CreateGroupRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Participants []string `json:"participants"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupID      string   `json:"groupId"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Participants []string `json:"participants"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

type GetUserRequest struct {
	UserID string `json:"userId"`
}

type GetUserResponse struct {
	User *User `json:"user"`
}

// Expenses

// Item is one line of an itemized bill, shared equally by AssignedTo.
type Item struct {
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	AssignedTo  []string `json:"assignedTo"`
}

// CreateExpenseRequest describes how the amount is shared in one of three
// ways, checked in this order: explicit Splits; Items, whose subtotal is
// scaled up or down to Amount (tax, tip, discounts); or SplitEquallyAmong,
// the user IDs that share the amount evenly.
type CreateExpenseRequest struct {
	GroupID           string     `json:"groupId"`
	Description       string     `json:"description"`
	Amount            string     `json:"amount"`
	PaidBy            string     `json:"paidBy"`
	Category          string     `json:"category,omitempty"`
	Date              *time.Time `json:"date,omitempty"`
	Splits            []Split    `json:"splits,omitempty"`
	Items             []Item     `json:"items,omitempty"`
	SplitEquallyAmong []string   `json:"splitEquallyAmong,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// UpdateExpenseRequest replaces every mutable field of an expense.
type UpdateExpenseRequest struct {
	ExpenseID         string     `json:"expenseId"`
	Description       string     `json:"description"`
	Amount            string     `json:"amount"`
	PaidBy            string     `json:"paidBy"`
	Category          string     `json:"category,omitempty"`
	Date              *time.Time `json:"date,omitempty"`
	Splits            []Split    `json:"splits,omitempty"`
	Items             []Item     `json:"items,omitempty"`
	SplitEquallyAmong []string   `json:"splitEquallyAmong,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// Settlements and balances

type CreateSettlementRequest struct {
	GroupID    string     `json:"groupId"`
	FromUserID string     `json:"fromUserId"`
	ToUserID   string     `json:"toUserId"`
	Amount     string     `json:"amount"`
	Method     string     `json:"method"`
	Notes      string     `json:"notes,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
}

type CreateSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlementId"`
}

type DeleteSettlementResponse struct{}

type GetBalancesRequest struct {
	GroupID string `json:"groupId"`
}

// GetBalancesResponse maps each participant to a signed balance with two
// decimals: positive is owed money, negative owes money.
type GetBalancesResponse struct {
	GroupID      string                 `json:"groupId"`
	Participants []string               `json:"participants"`
	Balances     map[string]json.Number `json:"balances"`
}

// SuggestSettlementRequest asks for a settle-up payment for the caller.
// With CounterpartyID set, the suggestion is between the caller and that user.
type SuggestSettlementRequest struct {
	GroupID        string `json:"groupId"`
	CounterpartyID string `json:"counterpartyId,omitempty"`
}

// SuggestSettlementResponse has a nil Suggestion when nothing needs settling.
type SuggestSettlementResponse struct {
	Suggestion *Payment `json:"suggestion"`
}

type SimplifyDebtsRequest struct {
	GroupID string `json:"groupId"`
}

type SimplifyDebtsResponse struct {
	Transfers []*Payment `json:"transfers"`
}

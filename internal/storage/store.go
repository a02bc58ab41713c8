// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/splitsettle/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned (wrapped) when a unique field is already taken.
var ErrDuplicate = errors.New("already exists")

// ErrNotParticipant is returned (wrapped) when an expense or settlement write
// names a user outside the group's participant set.
var ErrNotParticipant = errors.New("not a group participant")

// ErrParticipantInUse is returned (wrapped) when a group update would drop a
// participant that existing expenses or settlements still reference.
var ErrParticipantInUse = errors.New("participant still referenced by the ledger")

// ExpenseUsers returns the payer followed by every split beneficiary.
func ExpenseUsers(e *models.Expense) []string {
	ids := make([]string, 0, len(e.Splits)+1)
	ids = append(ids, e.PaidBy)
	for _, s := range e.Splits {
		ids = append(ids, s.UserID)
	}
	return ids
}

// SettlementUsers returns the payer and the payee of a settlement.
func SettlementUsers(s *models.Settlement) []string {
	return []string{s.FromUserID, s.ToUserID}
}

// RequireParticipants fails with ErrNotParticipant on the first id that is
// not in participants.
func RequireParticipants(groupID string, participants, ids []string) error {
	if id, ok := outsider(participants, ids); ok {
		return fmt.Errorf("group %s: user %q: %w", groupID, id, ErrNotParticipant)
	}
	return nil
}

// RequireRetained fails with ErrParticipantInUse when a referenced user is
// missing from the group's new participant list.
func RequireRetained(groupID string, participants, referenced []string) error {
	if id, ok := outsider(participants, referenced); ok {
		return fmt.Errorf("group %s: cannot remove %q: %w", groupID, id, ErrParticipantInUse)
	}
	return nil
}

func outsider(participants, ids []string) (string, bool) {
	member := make(map[string]bool, len(participants))
	for _, p := range participants {
		member[p] = true
	}
	for _, id := range ids {
		if !member[id] {
			return id, true
		}
	}
	return "", false
}

// LedgerReader is the read contract the balance engine depends on. Each call
// returns a snapshot that callers may fold without further coordination.
type LedgerReader interface {
	// GetGroup retrieves a group by ID, participants in their stored order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupExpenses returns every expense recorded for a group.
	ListGroupExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListGroupSettlements returns every settlement recorded for a group.
	ListGroupSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error)
}

// Store defines the full storage capability.
// This abstraction allows swapping storage backends (memory, SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	LedgerReader

	// CreateUser persists a new user. Returns ErrDuplicate if the email or
	// username is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreateGroup persists a new group. ID and CreatedAt are filled in when empty.
	CreateGroup(ctx context.Context, group *models.Group) error
	// UpdateGroup replaces name, description and participants of an existing group.
	UpdateGroup(ctx context.Context, group *models.Group) error
	ListGroups(ctx context.Context) ([]*models.Group, error)
	// ListUserGroups returns the groups a user participates in or created.
	ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error)

	// CreateExpense persists a new expense. ID and Date are filled in when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	// UpdateExpense replaces an existing expense, splits included.
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error

	// CreateSettlement persists a new settlement. ID and Date are filled in when empty.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	DeleteSettlement(ctx context.Context, settlementID string) error

	// Close releases any resources held by the store.
	Close() error
}

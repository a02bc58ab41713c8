// Package memory provides an in-process implementation of storage.Store.
// Data lives for the lifetime of the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps every record in maps guarded by a single RWMutex. Records are
// copied on the way in and out so callers never share memory with the store.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*models.User
	groups      map[string]*models.Group
	expenses    map[string]*models.Expense
	settlements map[string]*models.Settlement
	seq         int64 // insertion order for stable listings
	order       map[string]int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:       make(map[string]*models.User),
		groups:      make(map[string]*models.Group),
		expenses:    make(map[string]*models.Expense),
		settlements: make(map[string]*models.Settlement),
		order:       make(map[string]int64),
	}
}

// Close is a noop
func (s *Store) Close() error { return nil }

func (s *Store) track(kind, id string) {
	s.seq++
	s.order[kind+"/"+id] = s.seq
}

func (s *Store) rank(kind, id string) int64 {
	return s.order[kind+"/"+id]
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

// CreateUser adds a user.
func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
		user.UpdatedAt = user.CreatedAt
	}
	if user.Username == "" {
		user.Username = user.ID
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user %s: %w", user.ID, storage.ErrDuplicate)
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("email %s: %w", user.Email, storage.ErrDuplicate)
		}
		if u.Username == user.Username {
			return fmt.Errorf("username %s: %w", user.Username, storage.ErrDuplicate)
		}
	}

	u := *user
	s.users[u.ID] = &u
	s.track("user", u.ID)
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	out := *u
	return &out, nil
}

// GetUserByEmail returns a user by email, case-insensitively.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, notFound("user with email", email)
}

// ListUsers returns all users in insertion order.
func (s *Store) ListUsers(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out := *u
		users = append(users, &out)
	}
	sort.Slice(users, func(i, j int) bool { return s.rank("user", users[i].ID) < s.rank("user", users[j].ID) })
	return users, nil
}

func cloneGroup(g *models.Group) *models.Group {
	out := *g
	out.Participants = append([]string(nil), g.Participants...)
	return &out
}

// CreateGroup adds a group.
func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if _, exists := s.groups[group.ID]; exists {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrDuplicate)
	}
	s.groups[group.ID] = cloneGroup(group)
	s.track("group", group.ID)
	return nil
}

// GetGroup returns a group by ID.
func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, notFound("group", groupID)
	}
	return cloneGroup(g), nil
}

// UpdateGroup replaces the mutable fields of a group.
func (s *Store) UpdateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.groups[group.ID]
	if !ok {
		return notFound("group", group.ID)
	}
	if err := storage.RequireRetained(group.ID, group.Participants, s.referenced(group.ID)); err != nil {
		return err
	}
	updated := cloneGroup(group)
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	s.groups[group.ID] = updated
	return nil
}

// referenced collects every user the group's expenses and settlements name.
// Callers hold s.mu.
func (s *Store) referenced(groupID string) []string {
	var ids []string
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			ids = append(ids, storage.ExpenseUsers(e)...)
		}
	}
	for _, st := range s.settlements {
		if st.GroupID == groupID {
			ids = append(ids, storage.SettlementUsers(st)...)
		}
	}
	return ids
}

// ListGroups returns all groups in insertion order.
func (s *Store) ListGroups(_ context.Context) ([]*models.Group, error) {
	return s.filterGroups(func(*models.Group) bool { return true }), nil
}

// ListUserGroups returns groups the user participates in or created.
func (s *Store) ListUserGroups(_ context.Context, userID string) ([]*models.Group, error) {
	return s.filterGroups(func(g *models.Group) bool {
		return g.CreatedBy == userID || g.HasParticipant(userID)
	}), nil
}

func (s *Store) filterGroups(keep func(*models.Group) bool) []*models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		if keep(g) {
			groups = append(groups, cloneGroup(g))
		}
	}
	sort.Slice(groups, func(i, j int) bool { return s.rank("group", groups[i].ID) < s.rank("group", groups[j].ID) })
	return groups
}

func cloneExpense(e *models.Expense) *models.Expense {
	out := *e
	out.Splits = append([]models.Split(nil), e.Splits...)
	return &out
}

// CreateExpense adds an expense.
func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[expense.GroupID]
	if !ok {
		return notFound("group", expense.GroupID)
	}
	if err := storage.RequireParticipants(group.ID, group.Participants, storage.ExpenseUsers(expense)); err != nil {
		return err
	}
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC().Truncate(time.Second)
	}
	s.expenses[expense.ID] = cloneExpense(expense)
	s.track("expense", expense.ID)
	return nil
}

// GetExpense returns an expense by ID.
func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, notFound("expense", expenseID)
	}
	return cloneExpense(e), nil
}

// UpdateExpense replaces an expense.
func (s *Store) UpdateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.expenses[expense.ID]
	if !ok {
		return notFound("expense", expense.ID)
	}
	if group, ok := s.groups[existing.GroupID]; ok {
		if err := storage.RequireParticipants(group.ID, group.Participants, storage.ExpenseUsers(expense)); err != nil {
			return err
		}
	}
	updated := cloneExpense(expense)
	updated.GroupID = existing.GroupID
	s.expenses[expense.ID] = updated
	return nil
}

// DeleteExpense removes an expense.
func (s *Store) DeleteExpense(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expenseID]; !ok {
		return notFound("expense", expenseID)
	}
	delete(s.expenses, expenseID)
	delete(s.order, "expense/"+expenseID)
	return nil
}

// ListGroupExpenses returns the group's expenses in insertion order.
func (s *Store) ListGroupExpenses(_ context.Context, groupID string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []*models.Expense
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			expenses = append(expenses, cloneExpense(e))
		}
	}
	sort.Slice(expenses, func(i, j int) bool { return s.rank("expense", expenses[i].ID) < s.rank("expense", expenses[j].ID) })
	return expenses, nil
}

// CreateSettlement adds a settlement.
func (s *Store) CreateSettlement(_ context.Context, settlement *models.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[settlement.GroupID]
	if !ok {
		return notFound("group", settlement.GroupID)
	}
	if err := storage.RequireParticipants(group.ID, group.Participants, storage.SettlementUsers(settlement)); err != nil {
		return err
	}
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.Date.IsZero() {
		settlement.Date = time.Now().UTC().Truncate(time.Second)
	}
	out := *settlement
	s.settlements[out.ID] = &out
	s.track("settlement", out.ID)
	return nil
}

// GetSettlement returns a settlement by ID.
func (s *Store) GetSettlement(_ context.Context, settlementID string) (*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settlements[settlementID]
	if !ok {
		return nil, notFound("settlement", settlementID)
	}
	out := *st
	return &out, nil
}

// DeleteSettlement removes a settlement.
func (s *Store) DeleteSettlement(_ context.Context, settlementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settlements[settlementID]; !ok {
		return notFound("settlement", settlementID)
	}
	delete(s.settlements, settlementID)
	delete(s.order, "settlement/"+settlementID)
	return nil
}

// ListGroupSettlements returns the group's settlements in insertion order.
func (s *Store) ListGroupSettlements(_ context.Context, groupID string) ([]*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var settlements []*models.Settlement
	for _, st := range s.settlements {
		if st.GroupID == groupID {
			out := *st
			settlements = append(settlements, &out)
		}
	}
	sort.Slice(settlements, func(i, j int) bool {
		return s.rank("settlement", settlements[i].ID) < s.rank("settlement", settlements[j].ID)
	})
	return settlements, nil
}

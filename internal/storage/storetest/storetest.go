// Package storetest holds the behavioural contract every storage.Store
// implementation must satisfy. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

// Factory returns a fresh, empty store. Run closes it when the subtest ends.
type Factory func(t *testing.T) storage.Store

// Run exercises the full storage.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"Users", testUsers},
		{"Groups", testGroups},
		{"Expenses", testExpenses},
		{"Settlements", testSettlements},
		{"Membership", testMembership},
		{"SeedDemo", testSeedDemo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	alice := &models.User{Email: "alice@example.com", Name: "Alice", Role: models.RoleMember, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, alice))
	assert.NotEmpty(t, alice.ID)
	assert.NotZero(t, alice.CreatedAt)
	assert.NotEmpty(t, alice.Username)

	bob := &models.User{ID: "bob", Username: "bob", Email: "bob@example.com", Name: "Bob", Role: models.RoleAdmin}
	require.NoError(t, s.CreateUser(ctx, bob))

	got, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, got.Email)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, models.RoleMember, got.Role)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = s.GetUserByEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.ID)
	assert.Equal(t, models.RoleAdmin, got.Role)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	dup := &models.User{Email: "alice@example.com", Name: "Other", Role: models.RoleMember}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), storage.ErrDuplicate)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	ids := []string{users[0].ID, users[1].ID}
	assert.ElementsMatch(t, []string{alice.ID, "bob"}, ids)
}

func testGroups(t *testing.T, s storage.Store) {
	ctx := context.Background()

	trip := &models.Group{
		Name:         "Trip",
		Description:  "Beach house",
		CreatedBy:    "alice",
		Participants: []string{"carol", "alice", "bob"},
	}
	require.NoError(t, s.CreateGroup(ctx, trip))
	assert.NotEmpty(t, trip.ID)
	assert.NotZero(t, trip.CreatedAt)

	got, err := s.GetGroup(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip", got.Name)
	assert.Equal(t, "Beach house", got.Description)
	assert.Equal(t, "alice", got.CreatedBy)
	assert.Equal(t, []string{"carol", "alice", "bob"}, got.Participants, "participant order is preserved")

	// Mutating the returned copy must not leak into the store.
	got.Participants[0] = "mallory"
	again, err := s.GetGroup(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", again.Participants[0])

	owned := &models.Group{Name: "Solo", CreatedBy: "dave", Participants: []string{"erin"}}
	require.NoError(t, s.CreateGroup(ctx, owned))

	all, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.ListUserGroups(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, trip.ID, mine[0].ID)
	assert.Equal(t, []string{"carol", "alice", "bob"}, mine[0].Participants)

	mine, err = s.ListUserGroups(ctx, "dave")
	require.NoError(t, err)
	require.Len(t, mine, 1, "creators see their groups even when not participating")
	assert.Equal(t, owned.ID, mine[0].ID)

	mine, err = s.ListUserGroups(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, mine)

	trip.Name = "Road trip"
	trip.Participants = []string{"alice", "bob"}
	require.NoError(t, s.UpdateGroup(ctx, trip))
	got, err = s.GetGroup(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Road trip", got.Name)
	assert.Equal(t, []string{"alice", "bob"}, got.Participants)
	assert.Equal(t, "alice", got.CreatedBy)

	err = s.UpdateGroup(ctx, &models.Group{ID: "missing", Name: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetGroup(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testExpenses(t *testing.T, s storage.Store) {
	ctx := context.Background()

	group := &models.Group{Name: "Flat", CreatedBy: "a", Participants: []string{"a", "b", "c"}}
	require.NoError(t, s.CreateGroup(ctx, group))

	date := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	dinner := &models.Expense{
		GroupID:     group.ID,
		Description: "Dinner",
		Amount:      dec("100.01"),
		PaidBy:      "a",
		Category:    "food",
		Date:        date,
		Splits: []models.Split{
			{UserID: "c", Amount: dec("33.34")},
			{UserID: "a", Amount: dec("33.33")},
			{UserID: "b", Amount: dec("33.34")},
		},
	}
	require.NoError(t, s.CreateExpense(ctx, dinner))
	assert.NotEmpty(t, dinner.ID)

	got, err := s.GetExpense(ctx, dinner.ID)
	require.NoError(t, err)
	assert.Equal(t, group.ID, got.GroupID)
	assert.Equal(t, "Dinner", got.Description)
	assert.True(t, dec("100.01").Equal(got.Amount), "amount round-trips exactly, got %s", got.Amount)
	assert.Equal(t, "a", got.PaidBy)
	assert.Equal(t, "food", got.Category)
	assert.True(t, date.Equal(got.Date), "date round-trips, got %s", got.Date)
	require.Len(t, got.Splits, 3)
	assert.Equal(t, "c", got.Splits[0].UserID)
	assert.Equal(t, "a", got.Splits[1].UserID)
	assert.True(t, dec("33.33").Equal(got.Splits[1].Amount))

	taxi := &models.Expense{
		GroupID:     group.ID,
		Description: "Taxi",
		Amount:      dec("20"),
		PaidBy:      "b",
		Splits:      []models.Split{{UserID: "a", Amount: dec("10")}, {UserID: "b", Amount: dec("10")}},
	}
	require.NoError(t, s.CreateExpense(ctx, taxi))
	assert.False(t, taxi.Date.IsZero(), "date defaults to now")

	listed, err := s.ListGroupExpenses(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, dinner.ID, listed[0].ID)
	assert.Equal(t, taxi.ID, listed[1].ID)
	assert.Len(t, listed[0].Splits, 3)
	assert.Len(t, listed[1].Splits, 2)

	taxi.Amount = dec("30")
	taxi.Description = "Long taxi"
	taxi.Splits = []models.Split{{UserID: "c", Amount: dec("30")}}
	require.NoError(t, s.UpdateExpense(ctx, taxi))
	got, err = s.GetExpense(ctx, taxi.ID)
	require.NoError(t, err)
	assert.Equal(t, "Long taxi", got.Description)
	assert.True(t, dec("30").Equal(got.Amount))
	require.Len(t, got.Splits, 1)
	assert.Equal(t, "c", got.Splits[0].UserID)

	require.NoError(t, s.DeleteExpense(ctx, dinner.ID))
	_, err = s.GetExpense(ctx, dinner.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, dinner.ID), storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateExpense(ctx, &models.Expense{ID: "missing", Amount: dec("1")}), storage.ErrNotFound)

	listed, err = s.ListGroupExpenses(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, taxi.ID, listed[0].ID)

	orphan := &models.Expense{GroupID: "missing", Description: "x", Amount: dec("1"), PaidBy: "a"}
	assert.ErrorIs(t, s.CreateExpense(ctx, orphan), storage.ErrNotFound)

	empty, err := s.ListGroupExpenses(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testSettlements(t *testing.T, s storage.Store) {
	ctx := context.Background()

	group := &models.Group{Name: "Flat", CreatedBy: "a", Participants: []string{"a", "b"}}
	require.NoError(t, s.CreateGroup(ctx, group))

	date := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	first := &models.Settlement{
		GroupID:    group.ID,
		FromUserID: "b",
		ToUserID:   "a",
		Amount:     dec("12.50"),
		Method:     "cash",
		Notes:      "pizza",
		Date:       date,
		CreatedBy:  "b",
	}
	require.NoError(t, s.CreateSettlement(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &models.Settlement{GroupID: group.ID, FromUserID: "a", ToUserID: "b", Amount: dec("0.01"), Method: "venmo"}
	require.NoError(t, s.CreateSettlement(ctx, second))

	got, err := s.GetSettlement(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.FromUserID)
	assert.Equal(t, "a", got.ToUserID)
	assert.True(t, dec("12.5").Equal(got.Amount))
	assert.Equal(t, "cash", got.Method)
	assert.Equal(t, "pizza", got.Notes)
	assert.Equal(t, "b", got.CreatedBy)
	assert.True(t, date.Equal(got.Date))

	got, err = s.GetSettlement(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)

	listed, err := s.ListGroupSettlements(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)

	require.NoError(t, s.DeleteSettlement(ctx, first.ID))
	_, err = s.GetSettlement(ctx, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSettlement(ctx, first.ID), storage.ErrNotFound)

	orphan := &models.Settlement{GroupID: "missing", FromUserID: "a", ToUserID: "b", Amount: dec("1"), Method: "cash"}
	assert.ErrorIs(t, s.CreateSettlement(ctx, orphan), storage.ErrNotFound)
}

func testMembership(t *testing.T, s storage.Store) {
	ctx := context.Background()

	group := &models.Group{Name: "Flat", CreatedBy: "a", Participants: []string{"a", "b", "c"}}
	require.NoError(t, s.CreateGroup(ctx, group))

	stranger := &models.Expense{
		GroupID:     group.ID,
		Description: "Snacks",
		Amount:      dec("10"),
		PaidBy:      "a",
		Splits:      []models.Split{{UserID: "a", Amount: dec("5")}, {UserID: "z", Amount: dec("5")}},
	}
	assert.ErrorIs(t, s.CreateExpense(ctx, stranger), storage.ErrNotParticipant)
	stranger.PaidBy = "z"
	stranger.Splits = []models.Split{{UserID: "a", Amount: dec("10")}}
	assert.ErrorIs(t, s.CreateExpense(ctx, stranger), storage.ErrNotParticipant)

	rent := &models.Expense{
		GroupID:     group.ID,
		Description: "Rent",
		Amount:      dec("10"),
		PaidBy:      "a",
		Splits:      []models.Split{{UserID: "a", Amount: dec("5")}, {UserID: "b", Amount: dec("5")}},
	}
	require.NoError(t, s.CreateExpense(ctx, rent))

	moved := *rent
	moved.Splits = []models.Split{{UserID: "z", Amount: dec("10")}}
	assert.ErrorIs(t, s.UpdateExpense(ctx, &moved), storage.ErrNotParticipant)
	got, err := s.GetExpense(ctx, rent.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Splits[1].UserID, "rejected update leaves the expense untouched")

	payout := &models.Settlement{GroupID: group.ID, FromUserID: "c", ToUserID: "z", Amount: dec("1"), Method: "cash"}
	assert.ErrorIs(t, s.CreateSettlement(ctx, payout), storage.ErrNotParticipant)
	payout.ToUserID = "a"
	require.NoError(t, s.CreateSettlement(ctx, payout))

	// b appears in a split and c in a settlement; neither can be dropped.
	for _, keep := range [][]string{{"a", "c"}, {"a", "b"}} {
		update := &models.Group{ID: group.ID, Name: "Flat", CreatedBy: "a", Participants: keep}
		assert.ErrorIs(t, s.UpdateGroup(ctx, update), storage.ErrParticipantInUse, "keeping %v", keep)
	}
	current, err := s.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, current.Participants)

	grown := &models.Group{ID: group.ID, Name: "Flat", CreatedBy: "a", Participants: []string{"c", "b", "a", "d"}}
	require.NoError(t, s.UpdateGroup(ctx, grown))
	current, err = s.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a", "d"}, current.Participants)
}

func testSeedDemo(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, storage.SeedDemo(ctx, s))

	demo, err := s.GetUser(ctx, storage.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", demo.Email)

	group, err := s.GetGroup(ctx, "demo-group")
	require.NoError(t, err)
	assert.Equal(t, []string{storage.DemoUserID, "user-1", "user-2", "user-3"}, group.Participants)

	groups, err := s.ListUserGroups(ctx, "user-3")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "demo-group", groups[0].ID)
}

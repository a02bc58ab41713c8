package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/storetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(context.Background(), dbPath)
	require.NoError(t, err, "failed to create store")
	return store
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return newTestStore(t)
	})
}

func TestInMemoryDatabase(t *testing.T) {
	store, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.CreateGroup(ctx, &models.Group{ID: "g", Name: "G", CreatedBy: "a", Participants: []string{"a"}}))
	_, err = store.GetGroup(ctx, "g")
	assert.NoError(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, storage.SeedDemo(ctx, store))
	require.NoError(t, store.Close())

	// Migrations are idempotent and the data survives.
	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	group, err := store.GetGroup(ctx, "work-group")
	require.NoError(t, err)
	assert.Equal(t, []string{storage.DemoUserID, "user-1", "user-2"}, group.Participants)
}

func TestDeleteExpenseRemovesSplits(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	require.NoError(t, store.CreateGroup(ctx, &models.Group{ID: "g", Name: "G", CreatedBy: "a", Participants: []string{"a", "b"}}))
	expense := &models.Expense{
		GroupID:     "g",
		Description: "Lunch",
		Amount:      decimal.RequireFromString("10"),
		PaidBy:      "a",
		Splits:      []models.Split{{UserID: "a", Amount: decimal.RequireFromString("5")}, {UserID: "b", Amount: decimal.RequireFromString("5")}},
	}
	require.NoError(t, store.CreateExpense(ctx, expense))
	require.NoError(t, store.DeleteExpense(ctx, expense.ID))

	var n int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expense_splits").Scan(&n))
	assert.Zero(t, n)
}

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/storetest"
)

// Set SPLITSETTLE_POSTGRES_DSN to a disposable database to run these tests.
// Every subtest truncates all tables.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SPLITSETTLE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SPLITSETTLE_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) storage.Store {
		ctx := context.Background()
		store, err := New(ctx, dsn)
		require.NoError(t, err)
		_, err = store.db.ExecContext(ctx,
			`TRUNCATE users, groups, expenses, expense_splits, settlements RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		return store
	})
}

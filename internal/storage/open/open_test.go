package open

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/config"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/memory"
	"github.com/mmynk/splitsettle/internal/storage/sqlite"
)

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), config.StorageConfig{Type: config.StorageMemory})
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &memory.Store{}, store)
	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestOpen_SQLiteSeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := config.StorageConfig{
		Type:       config.StorageSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "splitsettle.db"),
		SeedDemo:   true,
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.SQLiteStore{}, store)
	group, err := store.GetGroup(ctx, "demo-group")
	require.NoError(t, err)
	assert.Equal(t, []string{storage.DemoUserID, "user-1", "user-2", "user-3"}, group.Participants)
	require.NoError(t, store.Close())

	// Reopening a seeded database must not fail on duplicates.
	store, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()
	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Type: "mongo"})
	assert.ErrorContains(t, err, "mongo")
}

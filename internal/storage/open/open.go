// Package open builds the storage backend selected in the configuration.
package open

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitsettle/internal/config"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/memory"
	"github.com/mmynk/splitsettle/internal/storage/postgres"
	"github.com/mmynk/splitsettle/internal/storage/sqlite"
)

// Open connects to the configured backend, running its migrations, and loads
// the demo data when asked to and the store does not have it yet.
func Open(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch cfg.Type {
	case config.StorageMemory:
		store = memory.New()
	case config.StorageSQLite:
		store, err = sqlite.New(ctx, cfg.SQLitePath)
	case config.StoragePostgres:
		store, err = postgres.New(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("Storage initialized", "type", cfg.Type)

	if cfg.SeedDemo {
		if err := seed(ctx, store); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func seed(ctx context.Context, store storage.Store) error {
	_, err := store.GetUser(ctx, storage.DemoUserID)
	if err == nil {
		slog.Debug("Demo data already present")
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("checking demo data: %w", err)
	}
	if err := storage.SeedDemo(ctx, store); err != nil {
		return err
	}
	slog.Info("Demo data loaded", "user_id", storage.DemoUserID)
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitsettle/internal/config"
	"github.com/mmynk/splitsettle/internal/storage/open"
)

func newMigrateCommand(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Storage.Type == config.StorageMemory {
				fmt.Fprintln(cmd.OutOrStdout(), "memory storage has no schema; nothing to migrate")
				return nil
			}

			// Opening a store applies its migrations.
			store, err := open.Open(cmd.Context(), cfg.Storage)
			if err != nil {
				return fmt.Errorf("migrating %s storage: %w", cfg.Storage.Type, err)
			}
			if err := store.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s storage is up to date\n", cfg.Storage.Type)
			return nil
		},
	}
}

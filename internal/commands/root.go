// Package commands implements the splitsettle command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/splitsettle/internal/config"
	"github.com/mmynk/splitsettle/pkg/logging"
)

// Version is overridden at build time with -ldflags "-X ...commands.Version=...".
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "splitsettle",
		Short:   "Shared expenses, balances and settle-up suggestions",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to splitsettle.yaml (environment variables override it)")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	rootCmd.AddCommand(newServeCommand(load))
	rootCmd.AddCommand(newMigrateCommand(load))
	rootCmd.AddCommand(newBalancesCommand())

	return rootCmd
}

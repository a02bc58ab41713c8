package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/config"
	"github.com/mmynk/splitsettle/internal/metrics"
	"github.com/mmynk/splitsettle/internal/server"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/open"
	"github.com/mmynk/splitsettle/pkg/logging"
)

func newServeCommand(load func() (*config.Config, error)) *cobra.Command {
	var addr string
	var seedDemo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Connect API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("seed-demo") {
				cfg.Storage.SeedDemo = seedDemo
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logging.SetupWithLevel(logging.ParseLevel(cfg.Log.Level))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	cmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "load demo users and groups into an empty store")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) (err error) {
	store, err := open.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	revoker, closer, err := newRevoker(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closer.Close()) }()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if cfg.Storage.SeedDemo {
		logDemoToken(ctx, store, jwtManager)
	}

	handler, err := server.NewHandler(server.Deps{
		Store:     store,
		JWT:       jwtManager,
		Revoker:   revoker,
		Metrics:   metrics.New(),
		StaticDir: cfg.Server.StaticDir,
	})
	if err != nil {
		return err
	}

	return server.Run(ctx, cfg.Server.Addr, handler, cfg.Server.ShutdownTimeout)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newRevoker uses Redis when an address is configured so logouts survive
// restarts and are shared between replicas.
func newRevoker(ctx context.Context, cfg config.RedisConfig) (auth.Revoker, io.Closer, error) {
	if cfg.Addr == "" {
		slog.Info("Token revocation kept in memory")
		return auth.NewMemoryRevoker(), nopCloser{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	slog.Info("Token revocation backed by redis", "addr", cfg.Addr)
	return auth.NewRedisRevoker(client), client, nil
}

// logDemoToken prints a token for the seeded demo user, who has no password.
func logDemoToken(ctx context.Context, store storage.Store, jwtManager *auth.JWTManager) {
	user, err := store.GetUser(ctx, storage.DemoUserID)
	if err != nil {
		slog.Warn("Demo user not found", "error", err)
		return
	}
	token, err := jwtManager.Generate(user)
	if err != nil {
		slog.Warn("Failed to generate demo token", "error", err)
		return
	}
	slog.Info("Demo token", "user_id", user.ID, "token", token)
}

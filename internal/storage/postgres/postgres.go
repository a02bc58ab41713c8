// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/mmynk/splitsettle/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// PostgresStore implements storage.Store on top of lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// New connects to the database behind dsn, waiting for it to accept
// connections, and applies pending migrations.
func New(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// ping retries with exponential backoff so the server can start alongside the database.
func ping(ctx context.Context, db *sql.DB) error {
	backoff := retry.WithMaxRetries(6, retry.NewExponential(250*time.Millisecond))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			slog.Warn("Database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

// mapPQError translates constraint violations into storage sentinels.
// A foreign key violation means the referenced group does not exist.
func mapPQError(err error, what, groupID string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		return fmt.Errorf("%s: %w", what, storage.ErrDuplicate)
	case foreignKeyViolation:
		return notFound("group", groupID)
	}
	return err
}

func checkAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// lockParticipants reads a group's participants and holds a row lock on the
// group until tx ends, so membership cannot change under a pending write.
// UpdateGroup locks exclusively; ledger writes share the lock.
func lockParticipants(ctx context.Context, tx *sql.Tx, groupID string, exclusive bool) ([]string, error) {
	mode := "FOR SHARE"
	if exclusive {
		mode = "FOR UPDATE"
	}
	var participants pq.StringArray
	err := tx.QueryRowContext(ctx, `SELECT participants FROM groups WHERE id = $1 `+mode, groupID).Scan(&participants)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock group: %w", err)
	}
	return []string(participants), nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

const migrationSuffix = ".up.sql"

// connPatterns are substrings of errors that indicate a transient connection
// problem. SQL and constraint errors never match.
var connPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"dial tcp",
	"EOF",
	"connection timed out",
	"server closed the connection unexpectedly",
	"could not connect",
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, p := range connPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// MigrationFiles returns the *.up.sql names in the root of migrations, sorted.
func MigrationFiles(migrations fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), migrationSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations applies every pending *.up.sql file in sorted order, each in its
// own transaction, recording versions in schema_migrations. Connection errors
// are retried; SQL errors are returned immediately.
func RunMigrations(ctx context.Context, db DBTX, migrations fs.FS, logger *slog.Logger) error {
	var err error
	for attempt := 0; attempt < defaultRetryAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBackoff(attempt - 1)
			logger.Warn("migration failed due to connection error, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", defaultRetryAttempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
			if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
				return fmt.Errorf("run migrations: context canceled during retry: %w", sleepErr)
			}
		}

		err = runMigrationsOnce(ctx, db, migrations, logger)
		if err == nil || !isConnectionError(err) {
			return err
		}
	}
	return fmt.Errorf("run migrations after %d attempts: %w", defaultRetryAttempts, err)
}

func runMigrationsOnce(ctx context.Context, db DBTX, migrations fs.FS, logger *slog.Logger) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	names, err := MigrationFiles(migrations)
	if err != nil {
		return err
	}

	for _, name := range names {
		var exists bool
		err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", name).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if exists {
			logger.Debug("migration already applied, skipping", slog.String("version", name))
			continue
		}

		content, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx for migration %s: %w", name, err)
		}

		if _, err := tx.Exec(ctx, string(content)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("execute migration %s: %w", name, err)
		}

		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", name, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}

		logger.Info("migration applied", slog.String("version", name))
	}

	return nil
}

// Package migrate applies the embedded SQL migrations for the development backend's user table.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// lockID serialises concurrent migrators on the same database.
const lockID = 7274110

// Migration is one embedded SQL file.
type Migration struct {
	Version string
	File    string
}

// List returns the embedded migrations in apply order.
func List() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		out = append(out, Migration{Version: strings.TrimSuffix(e.Name(), ".sql"), File: e.Name()})
	}
	slices.SortFunc(out, func(a, b Migration) int { return strings.Compare(a.Version, b.Version) })
	return out, nil
}

// Run applies every pending migration. It is safe to call multiple times.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	migrations, err := List()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if applyErr := apply(ctx, db, m); applyErr != nil {
			return applyErr
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	body, err := migrationsFS.ReadFile("migrations/" + m.File)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.File, err)
	}

	logger := slog.Default().With("component", "migrations", "version", m.Version)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "failed to rollback migration", "error", rbErr)
		}
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, lockID); err != nil {
		return fmt.Errorf("lock migrations: %w", err)
	}

	var applied bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version,
	).Scan(&applied); err != nil {
		return fmt.Errorf("check migration %s: %w", m.File, err)
	}
	if applied {
		return nil
	}

	logger.InfoContext(ctx, "applying migration")
	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("exec migration %s: %w", m.File, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.File, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.File, err)
	}
	return nil
}

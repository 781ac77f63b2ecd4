package repository

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/josh-kwaku/swift-payments-portal/migrations"
)

// Migrate applies every embedded migration for driver that has not yet been
// recorded in schema_migrations. Each file runs in its own transaction.
func Migrate(ctx context.Context, db *sql.DB, driver string) (int, error) {
	if err := ensureSchemaMigrationsTable(ctx, db); err != nil {
		return 0, err
	}

	files, err := migrationFiles(driver)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, file := range files {
		done, err := isApplied(ctx, db, file)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		body, err := fs.ReadFile(migrations.FS, path.Join(driver, file))
		if err != nil {
			return applied, fmt.Errorf("Migrate: read %q: %w", file, err)
		}

		if err := applyMigration(ctx, db, file, string(body)); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

func applyMigration(ctx context.Context, db *sql.DB, version, body string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Migrate: begin tx for %q: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("Migrate: execute %q: %w", version, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
		version, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("Migrate: record %q: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Migrate: commit %q: %w", version, err)
	}
	return nil
}

func ensureSchemaMigrationsTable(ctx context.Context, db *sql.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL
)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("Migrate: ensure schema_migrations: %w", err)
	}
	return nil
}

func migrationFiles(driver string) ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, driver)
	if err != nil {
		return nil, fmt.Errorf("Migrate: no migrations for driver %q: %w", driver, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

func isApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM schema_migrations WHERE version = $1`, version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("Migrate: check %q: %w", version, err)
	}
	return count > 0, nil
}

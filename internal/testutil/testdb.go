package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/josh-kwaku/swift-payments-portal/internal/repository"
)

// SetupTestDB starts a disposable PostgreSQL container and applies the schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("payments_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	db, err := repository.Open(ctx, repository.DriverPostgres, connStr, repository.PoolConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := repository.Migrate(ctx, db, repository.DriverPostgres); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

// SetupSQLiteDB opens a migrated SQLite database in a per-test temp file.
func SetupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "payments.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := repository.Open(ctx, repository.DriverSQLite, dsn, repository.PoolConfig{})
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := repository.Migrate(ctx, db, repository.DriverSQLite); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

// Package testutil opens the external databases used by integration tests.
// Every helper skips the test when its environment variable is unset.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver for database/sql

	"github.com/teeck111/bmc/migrations"
)

const postgresEnv = "TEST_DATABASE_URL"

// PostgresDSN returns TEST_DATABASE_URL or skips the test.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(postgresEnv)
	if dsn == "" {
		t.Skip(postgresEnv + " not set; skipping integration test")
	}
	return dsn
}

// NewPool returns a pool on the test database with an empty trips table.
// The table is emptied again and the pool closed when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, PostgresDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	truncate := func() {
		if _, err := pool.Exec(ctx, "TRUNCATE trips"); err != nil {
			t.Errorf("testutil.NewPool: truncate trips: %v", err)
		}
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		pool.Close()
	})
	return pool
}

// NewSQLDB returns a database/sql handle on the test database, for goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", PostgresDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MigratePostgres brings the test database schema up to date. It is meant
// for TestMain, where there is no *testing.T; without TEST_DATABASE_URL it
// does nothing.
func MigratePostgres() error {
	dsn := os.Getenv(postgresEnv)
	if dsn == "" {
		return nil
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = migrations.Up(context.Background(), db)
	return err
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

// RunMigrations executes all pending goose migrations against a SQLite
// row source.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(EmbedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// Prepare creates the marketplace tables for the given driver.
func Prepare(ctx context.Context, driver string, db *sql.DB) error {
	switch driver {
	case DriverSQLite:
		return RunMigrations(db)
	case DriverDuckDB:
		return applyDuckDBSchema(ctx, db)
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
}

func applyDuckDBSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(duckDBSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply duckdb schema: %w", err)
		}
	}
	return nil
}

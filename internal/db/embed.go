package db

import "embed"

// EmbedMigrations contains the goose migrations of the SQLite row source.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS

// duckDBSchema creates the marketplace tables in a DuckDB database. DuckDB
// has no goose dialect, so the statements are idempotent instead.
//
//go:embed duckdb/schema.sql
var duckDBSchema string

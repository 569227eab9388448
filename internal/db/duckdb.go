package db

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // register the duckdb driver
)

// OpenDuckDB opens a DuckDB database file. An empty path opens an in-memory
// database.
func OpenDuckDB(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverDuckDB, path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return db, nil
}

// Source is an opened row source. Writer is used for schema preparation and
// seeding, Reader for dashboard queries; for DuckDB both are the same pool.
type Source struct {
	Driver string
	Writer *sql.DB
	Reader *sql.DB
}

// Open opens the row source of the given driver.
func Open(driver, path string) (*Source, error) {
	switch driver {
	case DriverSQLite:
		w, r, err := OpenSQLitePair(path, 0)
		if err != nil {
			return nil, err
		}
		return &Source{Driver: driver, Writer: w, Reader: r}, nil
	case DriverDuckDB:
		d, err := OpenDuckDB(path)
		if err != nil {
			return nil, err
		}
		return &Source{Driver: driver, Writer: d, Reader: d}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Close closes both pools.
func (s *Source) Close() error {
	if s.Reader != s.Writer {
		if err := s.Reader.Close(); err != nil {
			_ = s.Writer.Close()
			return err
		}
	}
	return s.Writer.Close()
}

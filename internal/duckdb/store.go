// Package duckdb stores feature results in DuckDB so they can be queried
// after a run: per read, per feature and as mutation frequency tables.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding feature results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, "" for an in-memory database.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS feature_results (
		input_path VARCHAR,
		query_name VARCHAR,
		query_clip5 BIGINT,
		query_clip3 BIGINT,
		target VARCHAR,
		orientation VARCHAR,
		feature VARCHAR,
		cs VARCHAR,
		clip5 BIGINT,
		clip3 BIGINT,
		mutations VARCHAR,
		n_nt_mutations BIGINT,
		n_op_mutations BIGINT,
		sequence VARCHAR
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		input_path VARCHAR,
		input_size BIGINT,
		input_mtime TIMESTAMP,
		records BIGINT,
		unmapped BIGINT,
		skipped BIGINT,
		filtered BIGINT,
		failed BIGINT,
		rows_written BIGINT,
		finished_at TIMESTAMP
	)`)
	return err
}

// Package history journals committed renames in a sqlite database so that a
// run can be listed and undone later.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Journal is the rename history database handle.
type Journal struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenPath opens or creates the journal at a specific path
func OpenPath(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	return open(db, path)
}

// OpenInMemory opens an in-memory journal for testing
func OpenInMemory() (*Journal, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory history: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	return open(db, ":memory:")
}

func open(db *sql.DB, path string) (*Journal, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history: %w", err)
	}

	j := &Journal{db: db, path: path}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history: %w", err)
	}
	return j, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the filesystem path to the database file
func (j *Journal) Path() string {
	return j.path
}

// ABOUTME: Opens the local history cache database and stamps its schema version
// ABOUTME: A cache written by a newer chatdesk is refused rather than rewritten
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNewerSchema is returned when the cache file was written by a newer schema
var ErrNewerSchema = errors.New("cache was created by a newer chatdesk")

// DB is the history cache connection
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the cache at path, creating the file and its directory if needed
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	// WAL lets a second chatdesk process read while one writes
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	return setup(conn, path)
}

// OpenInMemory opens an empty cache that lives only as long as the DB
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory cache: %w", err)
	}
	// Each pooled connection would otherwise get its own empty database
	conn.SetMaxOpenConns(1)
	return setup(conn, ":memory:")
}

func setup(conn *sql.DB, path string) (*DB, error) {
	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// migrate creates the history table and records SchemaVersion in user_version
func (db *DB) migrate() error {
	v, err := db.Version()
	if err != nil {
		return fmt.Errorf("reading cache version: %w", err)
	}
	if v > SchemaVersion {
		return fmt.Errorf("%w (version %d, this build knows %d)", ErrNewerSchema, v, SchemaVersion)
	}
	if _, err := db.conn.Exec(Schema); err != nil {
		return fmt.Errorf("creating cache schema: %w", err)
	}
	if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("stamping cache version: %w", err)
	}
	return nil
}

// Version returns the schema version stamped on the cache, 0 for a new file
func (db *DB) Version() (int, error) {
	var v int
	err := db.conn.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// Close closes the cache
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the cache file path, or ":memory:"
func (db *DB) Path() string {
	return db.path
}

// Begin starts a transaction for multi-row writes
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

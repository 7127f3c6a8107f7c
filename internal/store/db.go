package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrStoreOpen wraps failures to create or open the on-disk database.
// Fatal to the engine instance — callers should surface it.
var ErrStoreOpen = errors.New("store open")

// timeLayout is the on-disk timestamp encoding: fixed-width ISO-8601 UTC
// with millisecond precision. Fixed width keeps lexicographic ordering
// aligned with chronological ordering for range scans on TEXT columns.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime encodes a timestamp for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime decodes a stored timestamp. Returns the zero time on failure.
func ParseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DB wraps a sql.DB connection to the brainbox SQLite database.
// It is re-openable: every data method routes through ensureOpen, which
// transparently reopens the handle and re-prepares statements after Close.
type DB struct {
	Path string

	db     *sql.DB
	open   bool
	logger *zap.Logger

	stmt struct {
		getNeuron    *sql.Stmt
		upsertNeuron *sql.Stmt
		strengthen   *sql.Stmt
		appendAccess *sql.Stmt
	}
}

// DefaultDBPath returns the default database path: ~/.brainbox/brainbox.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".brainbox", "brainbox.db"), nil
}

// Open opens (or creates) the SQLite database at the given path,
// configures pragmas, runs migrations, and prepares hot-path statements.
func Open(path string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db := &DB{Path: path, logger: logger}
	if err := db.reopen(); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory() (*DB, error) {
	return Open(":memory:", zap.NewNop())
}

// reopen establishes a fresh connection, applying pragmas, migrations and
// prepared statements. Used by Open and by ensureOpen after Close.
func (db *DB) reopen() error {
	if db.Path != ":memory:" {
		dir := filepath.Dir(db.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create db dir: %v", ErrStoreOpen, err)
		}
	}

	sqlDB, err := sql.Open("sqlite", db.Path)
	if err != nil {
		return fmt.Errorf("%w: open sqlite: %v", ErrStoreOpen, err)
	}

	// Single-writer engine: one connection keeps statement-level atomicity
	// simple and makes :memory: databases coherent under database/sql.
	sqlDB.SetMaxOpenConns(1)

	db.db = sqlDB
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	if err := db.prepare(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("prepare statements: %w", err)
	}
	db.open = true
	return nil
}

// ensureOpen reopens the database if the handle was closed.
func (db *DB) ensureOpen() error {
	if db.open {
		return nil
	}
	return db.reopen()
}

// Close closes the database handle. Idempotent — a second Close is a no-op,
// and any later data method reopens lazily.
func (db *DB) Close() error {
	if !db.open {
		return nil
	}
	db.open = false
	for _, s := range []*sql.Stmt{
		db.stmt.getNeuron, db.stmt.upsertNeuron,
		db.stmt.strengthen, db.stmt.appendAccess,
	} {
		if s != nil {
			s.Close()
		}
	}
	return db.db.Close()
}

// Ping verifies the connection, reopening if needed.
func (db *DB) Ping() error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	return db.db.Ping()
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func (db *DB) prepare() error {
	var err error
	if db.stmt.getNeuron, err = db.db.Prepare(selectNeuron + " WHERE id = ?"); err != nil {
		return fmt.Errorf("get neuron: %w", err)
	}
	if db.stmt.upsertNeuron, err = db.db.Prepare(upsertNeuronSQL); err != nil {
		return fmt.Errorf("upsert neuron: %w", err)
	}
	if db.stmt.strengthen, err = db.db.Prepare(strengthenSQL); err != nil {
		return fmt.Errorf("strengthen synapse: %w", err)
	}
	if db.stmt.appendAccess, err = db.db.Prepare(appendAccessSQL); err != nil {
		return fmt.Errorf("append access: %w", err)
	}
	return nil
}

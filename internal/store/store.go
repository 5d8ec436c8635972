// Package store provides the durable key-value persistence surface backed
// by a local SQLite database. It holds two keys: the full state blob and
// the sync metadata, kept separate so a failing state write cannot corrupt
// sync bookkeeping.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Well-known keys used by the core.
const (
	KeyState    = "state"
	KeySyncMeta = "syncmeta"
)

// ErrQuota marks a write-specific, recoverable failure (disk full). It must
// not flip the store into degraded mode; smaller writes may still succeed.
var ErrQuota = errors.New("storage quota exceeded")

// ErrNotFound is returned by Get for an absent key.
var ErrNotFound = errors.New("key not found")

// Store is a synchronous KV surface over SQLite. Once a non-quota write
// fails, the store degrades to in-memory operation for the rest of the
// process: reads and writes keep working against a memory map so the app
// never crashes because a save failed.
type Store struct {
	db       *sql.DB
	degraded bool
	mem      map[string]string
}

// DefaultPath returns the default database path (~/.focusgarden/state.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".focusgarden", "state.db"), nil
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &Store{db: db, mem: map[string]string{}}, nil
}

// OpenDefault opens the store at the default path.
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Degraded reports whether the store has fallen back to in-memory writes.
func (s *Store) Degraded() bool {
	return s.degraded
}

// Get returns the value for key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	if s.degraded {
		if v, ok := s.mem[key]; ok {
			return v, nil
		}
		return "", ErrNotFound
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

// Set writes key to value. Quota failures return ErrQuota and leave the
// store healthy; any other failure degrades the store to in-memory mode.
func (s *Store) Set(key, value string) error {
	if s.degraded {
		s.mem[key] = value
		return nil
	}

	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err == nil {
		return nil
	}
	if isQuotaErr(err) {
		return fmt.Errorf("failed to write key %q: %w", key, ErrQuota)
	}

	s.degraded = true
	s.mem[key] = value
	return fmt.Errorf("storage unavailable, continuing in memory: %w", err)
}

// Remove deletes key. Removal of an absent key is not an error.
func (s *Store) Remove(key string) error {
	if s.degraded {
		delete(s.mem, key)
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func isQuotaErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "disk is full") ||
		strings.Contains(msg, "database or disk is full") ||
		strings.Contains(msg, "no space left")
}

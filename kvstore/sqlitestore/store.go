// Package sqlitestore persists kvstore items in a SQLite database file using
// the pure Go modernc.org/sqlite driver.
package sqlitestore

import (
	"database/sql"
	"os"
	"path/filepath"

	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/jrsteele09/go-seller-session/kvstore"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `CREATE TABLE IF NOT EXISTS kv_items (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

var _ kvstore.Repo = (*Store)(nil)

// Store is a SQLite backed kvstore.Repo
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and prepares the schema
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "[sqlitestore.Open] create database directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] sql.Open")
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "[sqlitestore.Open] %s", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.Open] create schema")
	}

	return &Store{db: db}, nil
}

// GetItem returns the value stored under key
func (s *Store) GetItem(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv_items WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrapf(apperrors.ErrNotFound, "key %q", key)
	}
	if err != nil {
		return "", unavailable(err, "get %q", key)
	}
	return value, nil
}

// SetItem creates or overwrites the value stored under key
func (s *Store) SetItem(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv_items (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return unavailable(err, "set %q", key)
	}
	return nil
}

// RemoveItem deletes key
func (s *Store) RemoveItem(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv_items WHERE key = ?", key); err != nil {
		return unavailable(err, "remove %q", key)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func unavailable(err error, format string, args ...interface{}) error {
	return errors.Wrapf(apperrors.ErrStorageUnavailable, format+": %v", append(args, err)...)
}

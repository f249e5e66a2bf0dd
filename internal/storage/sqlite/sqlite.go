// Package sqlite stores collection blobs in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/MrJamesThe3rd/vykazy/internal/storage"
)

type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and brings its schema up to date.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// A single writer keeps concurrent saves from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key storage.Key) ([]byte, error) {
	var blob string

	err := s.db.QueryRowContext(ctx, `SELECT blob FROM collections WHERE key = ?`, string(key)).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	return []byte(blob), nil
}

func (s *Store) Save(ctx context.Context, key storage.Key, blob []byte) error {
	query := `
		INSERT INTO collections (key, blob, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, string(key), string(blob)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	return nil
}

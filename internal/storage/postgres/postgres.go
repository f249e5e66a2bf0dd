// Package postgres stores collection blobs in a PostgreSQL table so several
// machines can share one ledger.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/MrJamesThe3rd/vykazy/internal/storage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS collections (
		key        TEXT PRIMARY KEY,
		blob       TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

type Store struct {
	db *sql.DB
}

// New wraps db and creates the collections table if it is missing.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating collections table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key storage.Key) ([]byte, error) {
	var blob string

	err := s.db.QueryRowContext(ctx, `SELECT blob FROM collections WHERE key = $1`, string(key)).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	return []byte(blob), nil
}

// Save upserts the blob under a transaction-scoped advisory lock on the key,
// so concurrent writers from other machines are serialized.
func (s *Store) Save(ctx context.Context, key storage.Key, blob []byte) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(key)); err != nil {
		return fmt.Errorf("acquiring lock for %s: %w", key, err)
	}

	query := `
		INSERT INTO collections (key, blob, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = NOW()
	`

	if _, err := dbTx.ExecContext(ctx, query, string(key), string(blob)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", key, err)
	}

	return nil
}

func lockKey(key storage.Key) int64 {
	h := fnv.New64a()
	h.Write([]byte("vykazy:"))
	h.Write([]byte(key))

	return int64(h.Sum64())
}

// Package memory keeps blobs in a map. It backs tests and throwaway sessions.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/MrJamesThe3rd/vykazy/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[storage.Key][]byte
}

func New() *Store {
	return &Store{blobs: make(map[storage.Key][]byte)}
}

func (s *Store) Load(ctx context.Context, key storage.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return bytes.Clone(blob), nil
}

func (s *Store) Save(ctx context.Context, key storage.Key, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = bytes.Clone(blob)

	return nil
}

// Close is a no-op so the store can stand in for file-backed ones.
func (s *Store) Close() error {
	return nil
}

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	// Decimal amounts are stored as JSON numbers.
	_ "github.com/MrJamesThe3rd/vykazy/internal/money"
)

// Marshal encodes v as compact JSON without HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// LoadJSON decodes the blob under key into a T. A missing key or a stored
// null yields the zero T.
func LoadJSON[T any](ctx context.Context, s Storage, key Key) (T, error) {
	var out T

	blob, err := s.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return out, nil
		}

		return out, fmt.Errorf("%w: loading %s: %w", apperr.ErrPersistence, key, err)
	}

	if len(bytes.TrimSpace(blob)) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(blob, &out); err != nil {
		return out, fmt.Errorf("%w: decoding %s: %w", apperr.ErrPersistence, key, err)
	}

	return out, nil
}

// SaveJSON encodes v and saves it under key.
func SaveJSON(ctx context.Context, s Storage, key Key, v any) error {
	blob, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", apperr.ErrPersistence, key, err)
	}

	if err := s.Save(ctx, key, blob); err != nil {
		return fmt.Errorf("%w: saving %s: %w", apperr.ErrPersistence, key, err)
	}

	return nil
}

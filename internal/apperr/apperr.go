// Package apperr defines the error kinds surfaced by the ledger core.
//
// Packages wrap these sentinels with context, so callers can match either the
// kind (errors.Is(err, apperr.ErrValidation)) or a package-specific sentinel
// built on top of it.
package apperr

import "errors"

var (
	// ErrValidation marks bad or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an operation that references a nonexistent id.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a failed read or write of the underlying storage.
	ErrPersistence = errors.New("persistence failed")
	// ErrFormat marks restore input that is not a recognized backup.
	ErrFormat = errors.New("unrecognized format")
)

// Kind returns the sentinel err belongs to, or nil for foreign errors.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrPersistence, ErrFormat} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

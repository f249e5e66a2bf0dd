package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	DefaultTaskCategories    = []string{"Administrativa", "Marketing", "Programování", "Grafika", "Schůzky"}
	DefaultExpenseCategories = []string{"Bydlení", "Jídlo", "Doprava", "Zábava", "Ostatní"}
)

// Defaults returns the first-run blob of every collection.
func Defaults() map[Key][]byte {
	task, _ := Marshal(DefaultTaskCategories)
	expense, _ := Marshal(DefaultExpenseCategories)

	return map[Key][]byte{
		KeyWorkLogs:          []byte("[]"),
		KeyFinanceRecords:    []byte("[]"),
		KeyTaskCategories:    task,
		KeyExpenseCategories: expense,
		KeyDebts:             []byte("[]"),
		KeyDebtPayments:      []byte("[]"),
		KeyRentSettings:      []byte(`{"amount":0,"day":1}`),
	}
}

// Seed writes the default blob for every key that has never been saved.
// Existing blobs are left alone.
func Seed(ctx context.Context, s Storage) error {
	defaults := Defaults()

	for _, key := range Keys {
		_, err := s.Load(ctx, key)
		if err == nil {
			continue
		}

		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("checking %s: %w", key, err)
		}

		if err := s.Save(ctx, key, defaults[key]); err != nil {
			return fmt.Errorf("seeding %s: %w", key, err)
		}
	}

	return nil
}

// Package storage defines the blob persistence the ledger stores are built on.
// Every collection is kept as one JSON document under a fixed key.
package storage

import (
	"context"
	"errors"
)

// Key names a persisted collection.
type Key string

const (
	KeyWorkLogs          Key = "workLogs"
	KeyFinanceRecords    Key = "financeRecords"
	KeyTaskCategories    Key = "taskCategories"
	KeyExpenseCategories Key = "expenseCategories"
	KeyDebts             Key = "debts"
	KeyDebtPayments      Key = "debtPayments"
	KeyRentSettings      Key = "rentSettings"
)

// Keys lists every collection in backup order.
var Keys = []Key{
	KeyWorkLogs,
	KeyFinanceRecords,
	KeyTaskCategories,
	KeyExpenseCategories,
	KeyDebts,
	KeyDebtPayments,
	KeyRentSettings,
}

// ErrNotFound is returned by Load for a key that was never saved.
var ErrNotFound = errors.New("key not found")

//go:generate mockgen -source=storage.go -destination=storage_mock.go -package=storage
type Storage interface {
	Load(ctx context.Context, key Key) ([]byte, error)
	Save(ctx context.Context, key Key, blob []byte) error
}

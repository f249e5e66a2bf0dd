// Package settings holds the user-editable lists and the rent reminder.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
)

// Rent is the monthly rent and the day of month it is due.
type Rent struct {
	Amount decimal.Decimal `json:"amount"`
	Day    int             `json:"day"`
}

// DefaultRent is used when nothing has been configured.
var DefaultRent = Rent{Amount: decimal.Zero, Day: 1}

type Service struct {
	store storage.Storage

	mu       sync.Mutex
	tasks    []string
	expenses []string
	rent     Rent
}

func NewService(store storage.Storage) *Service {
	return &Service{
		store:    store,
		tasks:    slices.Clone(storage.DefaultTaskCategories),
		expenses: slices.Clone(storage.DefaultExpenseCategories),
		rent:     DefaultRent,
	}
}

// Reload replaces the in-memory settings with the persisted ones.
func (s *Service) Reload(ctx context.Context) error {
	tasks, err := storage.LoadJSON[[]string](ctx, s.store, storage.KeyTaskCategories)
	if err != nil {
		return err
	}

	expenses, err := storage.LoadJSON[[]string](ctx, s.store, storage.KeyExpenseCategories)
	if err != nil {
		return err
	}

	rent, err := storage.LoadJSON[*Rent](ctx, s.store, storage.KeyRentSettings)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = orEmpty(tasks)
	s.expenses = orEmpty(expenses)
	s.rent = DefaultRent

	if rent != nil {
		s.rent = *rent
	}

	return nil
}

func (s *Service) TaskCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.tasks)
}

func (s *Service) ExpenseCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.expenses)
}

func (s *Service) AddTaskCategory(ctx context.Context, name string) error {
	return s.add(ctx, storage.KeyTaskCategories, &s.tasks, name)
}

func (s *Service) RemoveTaskCategory(ctx context.Context, name string) error {
	return s.remove(ctx, storage.KeyTaskCategories, &s.tasks, name)
}

func (s *Service) AddExpenseCategory(ctx context.Context, name string) error {
	return s.add(ctx, storage.KeyExpenseCategories, &s.expenses, name)
}

func (s *Service) RemoveExpenseCategory(ctx context.Context, name string) error {
	return s.remove(ctx, storage.KeyExpenseCategories, &s.expenses, name)
}

func (s *Service) Rent() Rent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rent
}

func (s *Service) SetRent(ctx context.Context, rent Rent) error {
	if rent.Day < 1 || rent.Day > 31 {
		return fmt.Errorf("%w: rent day must be between 1 and 31", apperr.ErrValidation)
	}

	if rent.Amount.IsNegative() {
		return fmt.Errorf("%w: rent cannot be negative", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.SaveJSON(ctx, s.store, storage.KeyRentSettings, rent); err != nil {
		slog.ErrorContext(ctx, "saving rent settings", "error", err)
		return err
	}

	s.rent = rent

	return nil
}

func (s *Service) add(ctx context.Context, key storage.Key, list *[]string, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name is required", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(*list, name) {
		return fmt.Errorf("%w: category %q already exists", apperr.ErrValidation, name)
	}

	return s.save(ctx, key, list, append(slices.Clone(*list), name))
}

func (s *Service) remove(ctx context.Context, key storage.Key, list *[]string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(*list, name) {
		return nil
	}

	return s.save(ctx, key, list, slices.DeleteFunc(slices.Clone(*list), func(c string) bool { return c == name }))
}

// save persists next and swaps it into list. Callers hold s.mu.
func (s *Service) save(ctx context.Context, key storage.Key, list *[]string, next []string) error {
	if err := storage.SaveJSON(ctx, s.store, key, next); err != nil {
		slog.ErrorContext(ctx, "saving categories", "key", key, "error", err)
		return err
	}

	*list = next

	return nil
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}

	return list
}

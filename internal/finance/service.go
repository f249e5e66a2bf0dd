// Package finance keeps the household income and expense records.
package finance

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

var ErrNotFound = fmt.Errorf("finance record %w", apperr.ErrNotFound)

type Service struct {
	store storage.Storage

	mu      sync.Mutex
	records []Record
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store, records: []Record{}}
}

type CreateParams struct {
	Type        Type
	Date        timefmt.Date
	Description string
	Category    string
	Amount      decimal.Decimal
	Currency    string
}

// Reload replaces the in-memory collection with the persisted one.
func (s *Service) Reload(ctx context.Context) error {
	records, err := storage.LoadJSON[[]Record](ctx, s.store, storage.KeyFinanceRecords)
	if err != nil {
		return err
	}

	if records == nil {
		records = []Record{}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Record, error) {
	rec, err := newRecord(params)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, append(slices.Clone(s.records), rec)); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Update replaces every field of the record with the given id.
func (s *Service) Update(ctx context.Context, id string, params CreateParams) (Record, error) {
	rec, err := newRecord(params)
	if err != nil {
		return Record{}, err
	}

	rec.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id })
	if idx < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := slices.Clone(s.records)
	next[idx] = rec

	if err := s.persist(ctx, next); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Delete removes the record with the given id. Unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.records, func(r Record) bool { return r.ID == id }) {
		return nil
	}

	return s.persist(ctx, slices.DeleteFunc(slices.Clone(s.records), func(r Record) bool { return r.ID == id }))
}

func (s *Service) Get(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}

	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns all records, newest date first. Records sharing a date keep
// their storage order.
func (s *Service) List() []Record {
	s.mu.Lock()
	out := slices.Clone(s.records)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Record) int {
		return b.Date.Compare(a.Date)
	})

	return out
}

// Summarize totals records per currency, in first-seen currency order.
func Summarize(records []Record) []Totals {
	index := make(map[string]int)

	var out []Totals

	for _, r := range records {
		i, ok := index[r.Currency]
		if !ok {
			i = len(out)
			index[r.Currency] = i
			out = append(out, Totals{Currency: r.Currency})
		}

		switch r.Type {
		case TypeIncome:
			out[i].Income = out[i].Income.Add(r.Amount)
		case TypeExpense:
			out[i].Expense = out[i].Expense.Add(r.Amount)
		}
	}

	return out
}

type ImportResult struct {
	Imported  []Record
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing Record
}

type dupKey struct {
	Date        string
	Amount      string
	Type        Type
	Description string
}

func keyOf(date timefmt.Date, amount decimal.Decimal, typ Type, description string) dupKey {
	return dupKey{
		Date:        date.String(),
		Amount:      amount.String(),
		Type:        typ,
		Description: strings.TrimSpace(description),
	}
}

// Duplicates returns, for every param, the stored record it duplicates or nil.
// Nothing is written.
func (s *Service) Duplicates(params []CreateParams) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	lookup := make(map[dupKey]int, len(s.records))
	for i, r := range s.records {
		lookup[keyOf(r.Date, r.Amount, r.Type, r.Description)] = i
	}

	out := make([]*Record, len(params))

	for i, p := range params {
		if idx, ok := lookup[keyOf(p.Date, p.Amount, p.Type, p.Description)]; ok {
			rec := s.records[idx]
			out[i] = &rec
		}
	}

	return out
}

// ImportBatch appends params in one write unless some of them look like
// records already stored. In that case nothing is written and the result
// lists the conflicts alongside the params that are safe to add.
func (s *Service) ImportBatch(ctx context.Context, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	recs, err := paramsToRecords(params)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lookup := make(map[dupKey]Record, len(s.records))
	for _, r := range s.records {
		lookup[keyOf(r.Date, r.Amount, r.Type, r.Description)] = r
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[keyOf(p.Date, p.Amount, p.Type, p.Description)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	if err := s.persist(ctx, append(slices.Clone(s.records), recs...)); err != nil {
		return nil, fmt.Errorf("importing records: %w", err)
	}

	return &ImportResult{Imported: recs}, nil
}

// CreateBatch appends params in one write without duplicate detection.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]Record, error) {
	if len(params) == 0 {
		return nil, nil
	}

	recs, err := paramsToRecords(params)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, append(slices.Clone(s.records), recs...)); err != nil {
		return nil, fmt.Errorf("creating records: %w", err)
	}

	return recs, nil
}

func paramsToRecords(params []CreateParams) ([]Record, error) {
	recs := make([]Record, len(params))

	for i, p := range params {
		rec, err := newRecord(p)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}

		recs[i] = rec
	}

	return recs, nil
}

func newRecord(p CreateParams) (Record, error) {
	if p.Type != TypeIncome && p.Type != TypeExpense {
		return Record{}, fmt.Errorf("%w: unknown record type %q", apperr.ErrValidation, p.Type)
	}

	if p.Date.IsZero() {
		return Record{}, fmt.Errorf("%w: date is required", apperr.ErrValidation)
	}

	description := strings.TrimSpace(p.Description)
	if description == "" {
		return Record{}, fmt.Errorf("%w: description is required", apperr.ErrValidation)
	}

	if !p.Amount.IsPositive() {
		return Record{}, fmt.Errorf("%w: amount must be positive", apperr.ErrValidation)
	}

	return Record{
		ID:          uuid.NewString(),
		Type:        p.Type,
		Date:        p.Date,
		Description: description,
		Category:    p.Category,
		Amount:      p.Amount,
		Currency:    p.Currency,
	}, nil
}

// persist saves next and swaps it in. Callers hold s.mu.
func (s *Service) persist(ctx context.Context, next []Record) error {
	if err := storage.SaveJSON(ctx, s.store, storage.KeyFinanceRecords, next); err != nil {
		slog.ErrorContext(ctx, "saving finance records", "error", err)
		return err
	}

	s.records = next

	return nil
}

// Package debt tracks debts and the payments made against them.
package debt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

var (
	ErrNotFound = fmt.Errorf("debt %w", apperr.ErrNotFound)
	// ErrUnknownDebt is returned when a payment references a missing debt.
	ErrUnknownDebt = fmt.Errorf("%w: payment references an unknown debt", apperr.ErrValidation)
	// ErrOverpayment is returned when a payment exceeds the remaining amount.
	ErrOverpayment = fmt.Errorf("%w: payment exceeds remaining amount", apperr.ErrValidation)
	// ErrAmountTooLow is returned when an edit lowers a debt below what is
	// still owed or already paid.
	ErrAmountTooLow = fmt.Errorf("%w: amount is below the outstanding or repaid part", apperr.ErrValidation)
)

type Service struct {
	store storage.Storage

	mu       sync.Mutex
	debts    []Debt
	payments []Payment
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store, debts: []Debt{}, payments: []Payment{}}
}

type CreateParams struct {
	Person      person.Person
	Description string
	Amount      decimal.Decimal
	Currency    string
	Date        timefmt.Date
	DueDate     timefmt.Date
}

type PaymentParams struct {
	DebtID string
	Amount decimal.Decimal
	Date   timefmt.Date
	Note   string
}

// Reload replaces the in-memory debts and payments with the persisted ones.
func (s *Service) Reload(ctx context.Context) error {
	debts, err := storage.LoadJSON[[]Debt](ctx, s.store, storage.KeyDebts)
	if err != nil {
		return err
	}

	payments, err := storage.LoadJSON[[]Payment](ctx, s.store, storage.KeyDebtPayments)
	if err != nil {
		return err
	}

	if debts == nil {
		debts = []Debt{}
	}

	if payments == nil {
		payments = []Payment{}
	}

	s.mu.Lock()
	s.debts = debts
	s.payments = payments
	s.mu.Unlock()

	return nil
}

func (s *Service) CreateDebt(ctx context.Context, params CreateParams) (Debt, error) {
	if err := validate(params); err != nil {
		return Debt{}, err
	}

	d := Debt{
		ID:          uuid.NewString(),
		Person:      params.Person,
		Description: strings.TrimSpace(params.Description),
		Amount:      params.Amount,
		Currency:    params.Currency,
		Date:        params.Date,
		DueDate:     params.DueDate,
		Remaining:   params.Amount,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveDebts(ctx, append(slices.Clone(s.debts), d)); err != nil {
		return Debt{}, err
	}

	return d, nil
}

// UpdateDebt replaces the editable fields of a debt. Remaining is carried over.
func (s *Service) UpdateDebt(ctx context.Context, id string, params CreateParams) (Debt, error) {
	if err := validate(params); err != nil {
		return Debt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.debts, func(d Debt) bool { return d.ID == id })
	if idx < 0 {
		return Debt{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	existing := s.debts[idx]
	paid := existing.Amount.Sub(existing.Remaining)

	if params.Amount.LessThan(existing.Remaining) || params.Amount.LessThan(paid) {
		return Debt{}, fmt.Errorf("%w: %s < max(%s remaining, %s paid)", ErrAmountTooLow, params.Amount, existing.Remaining, paid)
	}

	d := Debt{
		ID:          id,
		Person:      params.Person,
		Description: strings.TrimSpace(params.Description),
		Amount:      params.Amount,
		Currency:    params.Currency,
		Date:        params.Date,
		DueDate:     params.DueDate,
		Remaining:   existing.Remaining,
	}

	next := slices.Clone(s.debts)
	next[idx] = d

	if err := s.saveDebts(ctx, next); err != nil {
		return Debt{}, err
	}

	return d, nil
}

// DeleteDebt removes a debt and every payment made against it. Unknown ids
// are ignored.
func (s *Service) DeleteDebt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.debts, func(d Debt) bool { return d.ID == id }) {
		return nil
	}

	debts := slices.DeleteFunc(slices.Clone(s.debts), func(d Debt) bool { return d.ID == id })
	payments := slices.DeleteFunc(slices.Clone(s.payments), func(p Payment) bool { return p.DebtID == id })

	return s.saveBoth(ctx, debts, payments)
}

// RecordPayment appends a payment and lowers the debt's remaining amount.
func (s *Service) RecordPayment(ctx context.Context, params PaymentParams) (Payment, error) {
	if !params.Amount.IsPositive() {
		return Payment{}, fmt.Errorf("%w: payment amount must be positive", apperr.ErrValidation)
	}

	if params.Date.IsZero() {
		return Payment{}, fmt.Errorf("%w: payment date is required", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.debts, func(d Debt) bool { return d.ID == params.DebtID })
	if idx < 0 {
		return Payment{}, fmt.Errorf("%w: %s", ErrUnknownDebt, params.DebtID)
	}

	remaining := s.debts[idx].Remaining
	if params.Amount.GreaterThan(remaining) {
		return Payment{}, fmt.Errorf("%w: %s > %s", ErrOverpayment, params.Amount, remaining)
	}

	p := Payment{
		ID:     uuid.NewString(),
		DebtID: params.DebtID,
		Amount: params.Amount,
		Date:   params.Date,
		Note:   params.Note,
	}

	debts := slices.Clone(s.debts)
	debts[idx].Remaining = remaining.Sub(params.Amount)

	if err := s.saveBoth(ctx, debts, append(slices.Clone(s.payments), p)); err != nil {
		return Payment{}, err
	}

	return p, nil
}

func (s *Service) GetDebt(id string) (Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.debts {
		if d.ID == id {
			return d, nil
		}
	}

	return Debt{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ListDebts returns all debts, most recently originated first.
func (s *Service) ListDebts() []Debt {
	s.mu.Lock()
	out := slices.Clone(s.debts)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Debt) int {
		return b.Date.Compare(a.Date)
	})

	return out
}

// ListActiveDebts returns the debts with something left to pay, in storage order.
func (s *Service) ListActiveDebts() []Debt {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Debt

	for _, d := range s.debts {
		if d.Remaining.IsPositive() {
			out = append(out, d)
		}
	}

	return out
}

// AllPayments returns every payment in storage order.
func (s *Service) AllPayments() []Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.payments)
}

// Payments returns the payments of one debt, newest first.
func (s *Service) Payments(debtID string) []Payment {
	s.mu.Lock()

	var out []Payment

	for _, p := range s.payments {
		if p.DebtID == debtID {
			out = append(out, p)
		}
	}

	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Payment) int {
		return b.Date.Compare(a.Date)
	})

	return out
}

func (s *Service) Progress(debtID string) (Progress, error) {
	d, err := s.GetDebt(debtID)
	if err != nil {
		return Progress{}, err
	}

	paid := decimal.Zero
	for _, p := range s.Payments(debtID) {
		paid = paid.Add(p.Amount)
	}

	pr := Progress{TotalPaid: paid, Remaining: d.Remaining}

	if d.Amount.IsPositive() {
		pct := paid.Div(d.Amount).Mul(decimal.NewFromInt(100)).InexactFloat64()
		pr.Percent = min(max(pct, 0), 100)
	}

	return pr, nil
}

func validate(p CreateParams) error {
	if strings.TrimSpace(string(p.Person)) == "" {
		return fmt.Errorf("%w: person is required", apperr.ErrValidation)
	}

	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%w: description is required", apperr.ErrValidation)
	}

	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", apperr.ErrValidation)
	}

	if p.Date.IsZero() {
		return fmt.Errorf("%w: date is required", apperr.ErrValidation)
	}

	return nil
}

// saveDebts persists debts alone. Callers hold s.mu.
func (s *Service) saveDebts(ctx context.Context, debts []Debt) error {
	if err := storage.SaveJSON(ctx, s.store, storage.KeyDebts, debts); err != nil {
		slog.ErrorContext(ctx, "saving debts", "error", err)
		return err
	}

	s.debts = debts

	return nil
}

// saveBoth writes payments, then debts. When the second write fails the
// payments blob is restored and memory is left untouched. Callers hold s.mu.
func (s *Service) saveBoth(ctx context.Context, debts []Debt, payments []Payment) error {
	if err := storage.SaveJSON(ctx, s.store, storage.KeyDebtPayments, payments); err != nil {
		slog.ErrorContext(ctx, "saving debt payments", "error", err)
		return err
	}

	if err := storage.SaveJSON(ctx, s.store, storage.KeyDebts, debts); err != nil {
		slog.ErrorContext(ctx, "saving debts", "error", err)

		if revertErr := storage.SaveJSON(ctx, s.store, storage.KeyDebtPayments, s.payments); revertErr != nil {
			slog.ErrorContext(ctx, "reverting debt payments", "error", revertErr)
			return errors.Join(err, revertErr)
		}

		return err
	}

	s.debts = debts
	s.payments = payments

	return nil
}

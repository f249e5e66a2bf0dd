// Package person identifies the people whose time and money the ledger tracks
// and maps each of them to an hourly rate.
package person

import (
	"errors"
	"fmt"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/money"
)

// Person is the lowercase identifier of a tracked person, e.g. "maru".
type Person string

// Title returns the display form of p with the first letter capitalized.
func (p Person) Title() string {
	r, size := utf8.DecodeRuneInString(string(p))
	if r == utf8.RuneError {
		return string(p)
	}

	return string(unicode.ToUpper(r)) + string(p)[size:]
}

// ErrUnknown is returned when a person has no configured rate.
var ErrUnknown = fmt.Errorf("%w: unknown person", apperr.ErrValidation)

const msPerHour = 3_600_000

// RateTable maps each known person to an hourly rate.
type RateTable struct {
	rates map[Person]decimal.Decimal
}

// NewRateTable copies rates into a new table. Rates must be positive.
func NewRateTable(rates map[Person]decimal.Decimal) (RateTable, error) {
	if len(rates) == 0 {
		return RateTable{}, errors.New("rate table is empty")
	}

	out := make(map[Person]decimal.Decimal, len(rates))

	for p, r := range rates {
		if p == "" {
			return RateTable{}, errors.New("rate table contains an empty person")
		}

		if !r.IsPositive() {
			return RateTable{}, fmt.Errorf("rate for %s must be positive, got %s", p, r)
		}

		out[p] = r
	}

	return RateTable{rates: out}, nil
}

// Rate returns the hourly rate of p.
func (t RateTable) Rate(p Person) (decimal.Decimal, error) {
	r, ok := t.rates[p]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w %q", ErrUnknown, p)
	}

	return r, nil
}

// Has reports whether p has a configured rate.
func (t RateTable) Has(p Person) bool {
	_, ok := t.rates[p]
	return ok
}

// People returns the known people in lexical order.
func (t RateTable) People() []Person {
	out := make([]Person, 0, len(t.rates))
	for p := range t.rates {
		out = append(out, p)
	}

	slices.Sort(out)

	return out
}

// Earnings is durationMs worth of work by p, rounded half up to whole units.
func (t RateTable) Earnings(p Person, durationMs int64) (int64, error) {
	rate, err := t.Rate(p)
	if err != nil {
		return 0, err
	}

	return Earnings(rate, durationMs), nil
}

// Earnings rounds durationMs/3600000 * rate half up.
func Earnings(rate decimal.Decimal, durationMs int64) int64 {
	amount := decimal.NewFromInt(durationMs).Mul(rate).Div(decimal.NewFromInt(msPerHour))
	return money.RoundHalfUp(amount)
}

// Hours converts a millisecond duration into fractional hours.
func Hours(durationMs int64) float64 {
	return float64(durationMs) / msPerHour
}

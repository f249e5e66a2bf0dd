// Package deduction derives the monthly withholding owed from each person's
// gross earnings.
package deduction

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/vykazy/internal/money"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

// Fraction is a withholding share kept as numerator and denominator so that
// shares like 1/3 stay exact.
type Fraction struct {
	Num decimal.Decimal
	Den decimal.Decimal
}

// ParseFraction accepts "1/3", "0.5" or "50%".
func ParseFraction(s string) (Fraction, error) {
	s = strings.TrimSpace(s)

	var f Fraction

	switch {
	case strings.Contains(s, "/"):
		num, den, _ := strings.Cut(s, "/")

		n, err := decimal.NewFromString(strings.TrimSpace(num))
		if err != nil {
			return Fraction{}, fmt.Errorf("parsing fraction %q: %w", s, err)
		}

		d, err := decimal.NewFromString(strings.TrimSpace(den))
		if err != nil {
			return Fraction{}, fmt.Errorf("parsing fraction %q: %w", s, err)
		}

		f = Fraction{Num: n, Den: d}
	case strings.HasSuffix(s, "%"):
		n, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		if err != nil {
			return Fraction{}, fmt.Errorf("parsing fraction %q: %w", s, err)
		}

		f = Fraction{Num: n, Den: decimal.NewFromInt(100)}
	default:
		n, err := decimal.NewFromString(s)
		if err != nil {
			return Fraction{}, fmt.Errorf("parsing fraction %q: %w", s, err)
		}

		f = Fraction{Num: n, Den: decimal.NewFromInt(1)}
	}

	if !f.Den.IsPositive() || f.Num.IsNegative() || f.Num.GreaterThan(f.Den) {
		return Fraction{}, fmt.Errorf("fraction %q must be between 0 and 1", s)
	}

	return f, nil
}

// Of applies the fraction to amount and rounds half up.
func (f Fraction) Of(amount int64) int64 {
	if f.Den.IsZero() {
		return 0
	}

	return money.RoundHalfUp(decimal.NewFromInt(amount).Mul(f.Num).Div(f.Den))
}

func (f Fraction) String() string {
	if f.Den.Equal(decimal.NewFromInt(1)) {
		return f.Num.String()
	}

	return f.Num.String() + "/" + f.Den.String()
}

// Rules maps each person to their withholding share.
type Rules map[person.Person]Fraction

// MonthlyDeduction aggregates one person's work in one calendar month.
type MonthlyDeduction struct {
	Person        person.Person
	Year          int
	Month         time.Month
	HoursWorked   float64
	GrossEarnings int64
	Deduction     int64
}

// MonthKey formats the month as "MM/YYYY".
func (m MonthlyDeduction) MonthKey() string {
	return fmt.Sprintf("%02d/%d", int(m.Month), m.Year)
}

type Calculator struct {
	rules Rules
	loc   *time.Location
}

func NewCalculator(rules Rules, loc *time.Location) *Calculator {
	return &Calculator{rules: rules, loc: loc}
}

// Calculate groups sessions by person and local calendar month. Results are
// ordered newest month first, then by person name.
func (c *Calculator) Calculate(sessions []worklog.WorkSession) []MonthlyDeduction {
	type groupKey struct {
		person person.Person
		year   int
		month  time.Month
	}

	index := make(map[groupKey]int)

	var out []MonthlyDeduction

	for _, w := range sessions {
		local := w.StartTime.In(c.loc)
		k := groupKey{person: w.Person, year: local.Year(), month: local.Month()}

		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MonthlyDeduction{Person: w.Person, Year: k.year, Month: k.month})
		}

		out[i].HoursWorked += w.Hours()
		out[i].GrossEarnings += w.Earnings
	}

	for i := range out {
		if f, ok := c.rules[out[i].Person]; ok {
			out[i].Deduction = f.Of(out[i].GrossEarnings)
		}
	}

	// Collators are not safe for concurrent use.
	col := collate.New(language.Czech)

	slices.SortStableFunc(out, func(a, b MonthlyDeduction) int {
		return cmp.Or(
			cmp.Compare(b.Year, a.Year),
			cmp.Compare(b.Month, a.Month),
			col.CompareString(string(a.Person), string(b.Person)),
		)
	})

	return out
}

// Package money holds helpers for decimal amounts: parsing user input,
// half-up rounding and the decimal-comma formatting used in CSV exports.
package money

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
)

func init() {
	// Stored blobs carry amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

var half = decimal.New(5, -1)

var printer = message.NewPrinter(language.Czech)

// Parse reads an amount typed by a user or found in a CSV cell. Both "1234.5"
// and "1 234,50" are accepted.
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(clean)

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", apperr.ErrValidation)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", apperr.ErrValidation, s)
	}

	return d, nil
}

// RoundHalfUp rounds d to an integer, ties toward positive infinity.
func RoundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

// FormatCSV renders d with a decimal comma and no grouping, e.g. "1234,5".
func FormatCSV(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

// FormatFloatCSV is FormatCSV for values already computed as float64.
func FormatFloatCSV(f float64) string {
	return strings.Replace(strconv.FormatFloat(f, 'f', -1, 64), ".", ",", 1)
}

// Display renders d the Czech way with up to two fraction digits, followed by
// the currency label when one is given.
func Display(d decimal.Decimal, currency string) string {
	s := printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2)))
	if currency == "" {
		return s
	}

	return s + " " + currency
}

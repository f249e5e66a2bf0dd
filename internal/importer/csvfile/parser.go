// Package csvfile reads finance records from CSV files: the ledger's own
// finance export as well as card and account statements with Czech headers.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	enc "github.com/MrJamesThe3rd/vykazy/internal/encoding"
	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/money"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

// DefaultCurrency is used for rows without a currency column.
const DefaultCurrency = "CZK"

var dateLayouts = []string{time.DateOnly, "2.1.2006", "2. 1. 2006"}

// Parser auto-detects the delimiter and the layout of a CSV file by matching
// its header against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]finance.CreateParams, error) {
	_, params, err := p.ParseLayout(r)
	return params, err
}

// ParseLayout is Parse that also returns the name of the matched profile.
func (p *Parser) ParseLayout(r io.Reader) (string, []finance.CreateParams, error) {
	data, err := enc.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("detect encoding: %w", err)
	}

	var readErr error

	for _, comma := range []rune{',', ';'} {
		rows, err := readRows(data, comma)
		if err != nil {
			readErr = err
			continue
		}

		profile, cols, headerIdx := detectProfile(rows)
		if profile == nil {
			continue
		}

		params, err := parseRows(profile, cols, rows[headerIdx+1:], headerIdx)
		if err != nil {
			return "", nil, err
		}

		return profile.Name, params, nil
	}

	if readErr != nil {
		return "", nil, fmt.Errorf("%w: read csv: %w", apperr.ErrFormat, readErr)
	}

	return "", nil, fmt.Errorf("%w: no matching CSV layout found: expected Datum, Popis and amount columns", apperr.ErrFormat)
}

func readRows(data []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts records from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]finance.CreateParams, error) {
	dateIdx := cols[p.DateCol]
	descIdx := cols[p.DescCol]

	var params []finance.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := parseDate(row, dateIdx)
		if !ok {
			continue
		}

		desc := cellValue(row, descIdx)
		if desc == "" {
			return nil, fmt.Errorf("%w: row %d: missing description", apperr.ErrValidation, rowNum)
		}

		amount, typ, ok, err := parseAmount(p, cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		if !ok {
			continue
		}

		currency := optionalCell(row, cols, p.CurrencyCol)
		if currency == "" {
			currency = DefaultCurrency
		}

		params = append(params, finance.CreateParams{
			Type:        typ,
			Date:        date,
			Description: desc,
			Category:    optionalCell(row, cols, p.CategoryCol),
			Amount:      amount,
			Currency:    currency,
		})
	}

	return params, nil
}

// parseDate returns false for empty cells or unparseable values (footer rows, etc).
func parseDate(row []string, idx int) (timefmt.Date, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return timefmt.Date{}, false
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return timefmt.NewDate(t.Year(), t.Month(), t.Day()), true
		}
	}

	return timefmt.Date{}, false
}

// parseAmount extracts the amount and record type according to the profile.
// Rows without a usable amount are skipped; only a bad type label is an error.
func parseAmount(p *Profile, cols colIndex, row []string) (decimal.Decimal, finance.Type, bool, error) {
	switch p.AmountMode {
	case amountLabeled:
		return parseLabeledAmount(row, cols[p.AmountCol], cols[p.TypeCol])
	case amountSigned:
		amount, typ, ok := parseSignedAmount(row, cols[p.AmountCol])
		return amount, typ, ok, nil
	case amountSplit:
		amount, typ, ok := parseSplitAmount(row, cols[p.DebitCol], cols[p.CreditCol])
		return amount, typ, ok, nil
	}

	return decimal.Zero, "", false, nil
}

func parseLabeledAmount(row []string, amountIdx, typeIdx int) (decimal.Decimal, finance.Type, bool, error) {
	typ, err := parseType(cellValue(row, typeIdx))
	if err != nil {
		return decimal.Zero, "", false, err
	}

	amount, ok := parsePositive(cellValue(row, amountIdx))

	return amount, typ, ok, nil
}

func parseSignedAmount(row []string, idx int) (decimal.Decimal, finance.Type, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return decimal.Zero, "", false
	}

	d, err := money.Parse(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, "", false
	}

	if d.IsNegative() {
		return d.Neg(), finance.TypeExpense, true
	}

	return d, finance.TypeIncome, true
}

func parseSplitAmount(row []string, debitIdx, creditIdx int) (decimal.Decimal, finance.Type, bool) {
	if d, ok := parsePositive(cellValue(row, debitIdx)); ok {
		return d, finance.TypeExpense, true
	}

	if d, ok := parsePositive(cellValue(row, creditIdx)); ok {
		return d, finance.TypeIncome, true
	}

	return decimal.Zero, "", false
}

// parsePositive parses s and returns its absolute value, rejecting zero.
func parsePositive(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}

	d, err := money.Parse(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}

	return d.Abs(), true
}

func parseType(label string) (finance.Type, error) {
	switch strings.ToLower(label) {
	case "příjem", string(finance.TypeIncome):
		return finance.TypeIncome, nil
	case "výdaj", string(finance.TypeExpense):
		return finance.TypeExpense, nil
	}

	return "", fmt.Errorf("%w: unknown record type %q", apperr.ErrValidation, label)
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func optionalCell(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok {
		return ""
	}

	return cellValue(row, idx)
}

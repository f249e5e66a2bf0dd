// Package export renders the ledger collections as CSV files for spreadsheet
// users. Output is UTF-8 with a BOM and uses a decimal comma.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/debt"
	"github.com/MrJamesThe3rd/vykazy/internal/deduction"
	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/money"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

// Suggested file names for each export.
const (
	WorkSessionsFile = "pracovni-zaznamy.csv"
	FinanceFile      = "financni-zaznamy.csv"
	DeductionsFile   = "srazky.csv"
	DebtsFile        = "dluhy.csv"
)

const bom = "\ufeff"

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = fmt.Errorf("%w: nothing to export", apperr.ErrValidation)

// Service writes CSV exports. Session times are rendered in its location.
type Service struct {
	loc *time.Location
}

// NewService creates a new export Service.
func NewService(loc *time.Location) *Service {
	return &Service{loc: loc}
}

// WorkSessions writes sessions in the given order.
func (s *Service) WorkSessions(w io.Writer, sessions []worklog.WorkSession) error {
	if len(sessions) == 0 {
		return ErrEmpty
	}

	cw := newWriter(w)
	cw.header("ID,Osoba,Úkol,Poznámka,Začátek,Konec,Doba (h),Výdělek (Kč)")

	for _, ws := range sessions {
		hours := math.Round(ws.Hours()*100) / 100

		cw.row(
			ws.ID,
			string(ws.Person),
			ws.Activity,
			ws.Note,
			timefmt.FormatDateTime(ws.StartTime.In(s.loc)),
			timefmt.FormatDateTime(ws.EndTime.In(s.loc)),
			money.FormatFloatCSV(hours),
			strconv.FormatInt(ws.Earnings, 10),
		)
	}

	return cw.flush()
}

// Finance writes records in the given order.
func (s *Service) Finance(w io.Writer, records []finance.Record) error {
	if len(records) == 0 {
		return ErrEmpty
	}

	cw := newWriter(w)
	cw.header("ID,Typ,Popis,Částka,Měna,Datum,Kategorie")

	for _, r := range records {
		cw.row(
			r.ID,
			r.Type.Label(),
			r.Description,
			money.FormatCSV(r.Amount),
			r.Currency,
			r.Date.String(),
			r.Category,
		)
	}

	return cw.flush()
}

// Deductions writes one row per person and month.
func (s *Service) Deductions(w io.Writer, rows []deduction.MonthlyDeduction) error {
	if len(rows) == 0 {
		return ErrEmpty
	}

	cw := newWriter(w)
	cw.header("Osoba,Měsíc,Celkem odpracováno (h),Hrubý výdělek (Kč),Srážka (Kč)")

	for _, d := range rows {
		cw.row(
			string(d.Person),
			d.MonthKey(),
			money.FormatFloatCSV(d.HoursWorked),
			strconv.FormatInt(d.GrossEarnings, 10),
			strconv.FormatInt(d.Deduction, 10),
		)
	}

	return cw.flush()
}

// Debts writes the debts followed by a "Splátky" section with every payment.
func (s *Service) Debts(w io.Writer, debts []debt.Debt, payments []debt.Payment) error {
	if len(debts) == 0 {
		return ErrEmpty
	}

	cw := newWriter(w)
	cw.header("ID,Osoba,Popis,Celková částka,Zbývající částka,Měna,Datum vzniku,Datum splatnosti")

	for _, d := range debts {
		cw.row(
			d.ID,
			string(d.Person),
			d.Description,
			money.FormatCSV(d.Amount),
			money.FormatCSV(d.Remaining),
			d.Currency,
			d.Date.String(),
			d.DueDate.String(),
		)
	}

	cw.line("\n\nSplátky")
	cw.line("ID,ID dluhu,Částka,Datum,Poznámka")

	for _, p := range payments {
		cw.row(
			p.ID,
			p.DebtID,
			money.FormatCSV(p.Amount),
			p.Date.String(),
			p.Note,
		)
	}

	return cw.flush()
}

// writer emits rows terminated by a bare "\n" and quotes only fields holding
// a comma, a quote or a newline. encoding/csv also quotes leading spaces.
type writer struct {
	bw  *bufio.Writer
	err error
}

func newWriter(w io.Writer) *writer {
	cw := &writer{bw: bufio.NewWriter(w)}
	cw.write(bom)

	return cw
}

func (w *writer) header(h string) {
	w.line(h)
}

func (w *writer) line(s string) {
	w.write(s)
	w.write("\n")
}

func (w *writer) row(fields ...string) {
	for i, f := range fields {
		if i > 0 {
			w.write(",")
		}

		w.write(escape(f))
	}

	w.write("\n")
}

func (w *writer) write(s string) {
	if w.err != nil {
		return
	}

	_, w.err = w.bw.WriteString(s)
}

func (w *writer) flush() error {
	if w.err != nil {
		return fmt.Errorf("writing csv: %w", w.err)
	}

	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	return nil
}

func escape(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}

	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

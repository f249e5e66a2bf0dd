package debt

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

// Debt is money owed by a person. Remaining starts at Amount and only payments
// lower it.
type Debt struct {
	ID          string          `json:"id"`
	Person      person.Person   `json:"person"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        timefmt.Date    `json:"date"`
	DueDate     timefmt.Date    `json:"dueDate"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// Payment is one repayment towards a debt.
type Payment struct {
	ID     string          `json:"id"`
	DebtID string          `json:"debtId"`
	Amount decimal.Decimal `json:"amount"`
	Date   timefmt.Date    `json:"date"`
	Note   string          `json:"note"`
}

type Status string

const (
	StatusActive  Status = "active"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Label returns the Czech label shown next to a debt.
func (s Status) Label() string {
	switch s {
	case StatusPaid:
		return "Splaceno"
	case StatusOverdue:
		return "Po splatnosti"
	default:
		return "Aktivní"
	}
}

// StatusOf classifies d as of the given day.
func StatusOf(d Debt, today timefmt.Date) Status {
	if !d.Remaining.IsPositive() {
		return StatusPaid
	}

	if !d.DueDate.IsZero() && d.DueDate.Compare(today) < 0 {
		return StatusOverdue
	}

	return StatusActive
}

// Progress summarizes how much of a debt has been repaid.
type Progress struct {
	TotalPaid decimal.Decimal
	Remaining decimal.Decimal
	// Percent is in [0, 100].
	Percent float64
}

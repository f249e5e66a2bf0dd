package finance

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

// Type represents the type of record (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Label returns the Czech label used in exports.
func (t Type) Label() string {
	if t == TypeIncome {
		return "Příjem"
	}

	return "Výdaj"
}

// Record is one household income or expense.
type Record struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Date        timefmt.Date    `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

// Totals sums the records of one currency.
type Totals struct {
	Currency string
	Income   decimal.Decimal
	Expense  decimal.Decimal
}

// Balance is income minus expense.
func (t Totals) Balance() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

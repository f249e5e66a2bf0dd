package view

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/money"
)

// FormatHours renders fractional hours with two decimals.
func FormatHours(h float64) string {
	return fmt.Sprintf("%.2f h", h)
}

// FormatKc renders a whole-crown amount.
func FormatKc(amount int64) string {
	return money.Display(decimal.NewFromInt(amount), "Kč")
}

// FormatAmount renders an amount with its currency.
func FormatAmount(amount decimal.Decimal, currency string) string {
	return money.Display(amount, currency)
}

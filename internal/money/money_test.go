package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/money"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Integer", input: "1000", want: "1000"},
		{name: "DotDecimal", input: "12.5", want: "12.5"},
		{name: "CommaDecimal", input: "12,50", want: "12.5"},
		{name: "GroupedCzech", input: "1 234,75", want: "1234.75"},
		{name: "GroupedDots", input: "1.234,75", want: "1234.75"},
		{name: "Padded", input: "  42 ", want: "42"},
		{name: "Empty", input: "  ", wantErr: true},
		{name: "Garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Parse(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrValidation)

				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: "0", want: 0},
		{in: "549.4999", want: 549},
		{in: "549.5", want: 550},
		{in: "600", want: 600},
		{in: "333.333333", want: 333},
		{in: "-2.5", want: -2},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, money.RoundHalfUp(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatCSV(t *testing.T) {
	assert.Equal(t, "1234,5", money.FormatCSV(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "300", money.FormatCSV(decimal.NewFromInt(300)))
	assert.Equal(t, "2,25", money.FormatFloatCSV(2.25))
	assert.Equal(t, "8", money.FormatFloatCSV(8))
}

func TestDisplay(t *testing.T) {
	assert.Contains(t, money.Display(decimal.RequireFromString("1234.5"), "CZK"), "234,5 CZK")
	assert.Equal(t, "12", money.Display(decimal.NewFromInt(12), ""))
}

func TestJSONAsNumber(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount decimal.Decimal `json:"amount"`
	}{Amount: decimal.RequireFromString("99.9")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":99.9}`, string(data))
	assert.Equal(t, `{"amount":99.9}`, string(data))
}

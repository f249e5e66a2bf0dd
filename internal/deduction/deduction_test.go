package deduction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/vykazy/internal/deduction"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

func rules(t *testing.T) deduction.Rules {
	t.Helper()

	third, err := deduction.ParseFraction("1/3")
	require.NoError(t, err)

	half, err := deduction.ParseFraction("0.5")
	require.NoError(t, err)

	return deduction.Rules{"maru": third, "marty": half}
}

func session(p person.Person, start time.Time, hours float64, earnings int64) worklog.WorkSession {
	return worklog.WorkSession{
		Person:     p,
		StartTime:  start,
		EndTime:    start.Add(time.Duration(hours * float64(time.Hour))),
		DurationMs: int64(hours * 3_600_000),
		Earnings:   earnings,
	}
}

func TestCalculator_Calculate(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	calc := deduction.NewCalculator(rules(t), loc)

	t.Run("SameMonthSummed", func(t *testing.T) {
		got := calc.Calculate([]worklog.WorkSession{
			session("maru", time.Date(2024, time.May, 2, 9, 0, 0, 0, loc), 2, 1000),
			session("maru", time.Date(2024, time.May, 20, 9, 0, 0, 0, loc), 1, 500),
		})

		require.Len(t, got, 1)
		assert.Equal(t, int64(1500), got[0].GrossEarnings)
		assert.Equal(t, int64(500), got[0].Deduction)
		assert.InDelta(t, 3.0, got[0].HoursWorked, 1e-9)
		assert.Equal(t, "05/2024", got[0].MonthKey())
	})

	t.Run("HalfForMarty", func(t *testing.T) {
		got := calc.Calculate([]worklog.WorkSession{
			session("marty", time.Date(2024, time.May, 2, 9, 0, 0, 0, loc), 2, 1000),
			session("marty", time.Date(2024, time.May, 3, 9, 0, 0, 0, loc), 1, 500),
		})

		require.Len(t, got, 1)
		assert.Equal(t, int64(750), got[0].Deduction)
	})

	t.Run("RoundsHalfUp", func(t *testing.T) {
		got := calc.Calculate([]worklog.WorkSession{
			session("maru", time.Date(2024, time.May, 2, 9, 0, 0, 0, loc), 1, 1000),
			session("marty", time.Date(2024, time.May, 2, 9, 0, 0, 0, loc), 1, 1001),
		})

		require.Len(t, got, 2)
		assert.Equal(t, person.Person("marty"), got[0].Person)
		assert.Equal(t, int64(501), got[0].Deduction)
		assert.Equal(t, int64(333), got[1].Deduction)
	})

	t.Run("UnknownPersonWithholdsNothing", func(t *testing.T) {
		got := calc.Calculate([]worklog.WorkSession{
			session("eve", time.Date(2024, time.May, 2, 9, 0, 0, 0, loc), 1, 900),
		})

		require.Len(t, got, 1)
		assert.Equal(t, int64(900), got[0].GrossEarnings)
		assert.Zero(t, got[0].Deduction)
	})

	t.Run("Ordering", func(t *testing.T) {
		got := calc.Calculate([]worklog.WorkSession{
			session("marty", time.Date(2023, time.December, 5, 9, 0, 0, 0, loc), 1, 400),
			session("marty", time.Date(2024, time.January, 5, 9, 0, 0, 0, loc), 1, 400),
			session("maru", time.Date(2024, time.January, 6, 9, 0, 0, 0, loc), 1, 275),
			session("maru", time.Date(2024, time.February, 1, 9, 0, 0, 0, loc), 1, 275),
		})

		require.Len(t, got, 4)
		assert.Equal(t, time.February, got[0].Month)
		assert.Equal(t, person.Person("marty"), got[1].Person)
		assert.Equal(t, time.January, got[1].Month)
		assert.Equal(t, person.Person("maru"), got[2].Person)
		assert.Equal(t, 2023, got[3].Year)
	})

	t.Run("CzechNameOrder", func(t *testing.T) {
		may := time.Date(2024, time.May, 2, 9, 0, 0, 0, loc)

		got := calc.Calculate([]worklog.WorkSession{
			session("iva", may, 1, 100),
			session("chris", may, 1, 100),
			session("hana", may, 1, 100),
			session("čeněk", may, 1, 100),
			session("cyril", may, 1, 100),
		})

		names := make([]person.Person, 0, len(got))
		for _, d := range got {
			names = append(names, d.Person)
		}

		// "ch" sorts as one letter between "h" and "i"; "č" follows "c".
		assert.Equal(t, []person.Person{"cyril", "čeněk", "hana", "chris", "iva"}, names)
	})

	t.Run("LocalMonthBoundary", func(t *testing.T) {
		// 23:30 UTC on 31 January is already February in Prague.
		got := calc.Calculate([]worklog.WorkSession{
			session("maru", time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC), 1, 275),
		})

		require.Len(t, got, 1)
		assert.Equal(t, time.February, got[0].Month)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, calc.Calculate(nil))
	})
}

func TestParseFraction(t *testing.T) {
	tests := []struct {
		in      string
		want    int64 // share of 900
		wantErr bool
	}{
		{in: "1/3", want: 300},
		{in: " 1 / 2 ", want: 450},
		{in: "0.5", want: 450},
		{in: "25%", want: 225},
		{in: "0", want: 0},
		{in: "3/2", wantErr: true},
		{in: "1/0", wantErr: true},
		{in: "-0.1", wantErr: true},
		{in: "half", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := deduction.ParseFraction(tt.in)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Of(900))
		})
	}
}

package timefmt_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{name: "Zero", ms: 0, want: "00:00:00"},
		{name: "SubSecond", ms: 999, want: "00:00:00"},
		{name: "Mixed", ms: (2*3600 + 5*60 + 9) * 1000, want: "02:05:09"},
		{name: "OverADay", ms: 125 * 3600 * 1000, want: "125:00:00"},
		{name: "Negative", ms: -5000, want: "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timefmt.FormatDuration(tt.ms))
		})
	}
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 8, 7, 0, 0, time.UTC)

	assert.Equal(t, "5. 3. 2024", timefmt.FormatDate(ts))
	assert.Equal(t, "08:07", timefmt.FormatClock(ts))
	assert.Equal(t, "5. 3. 2024 08:07", timefmt.FormatDateTime(ts))
	assert.Equal(t, "2024-03-05", timefmt.FileNameDate(ts))
}

func TestISO(t *testing.T) {
	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	ts := time.Date(2024, time.January, 15, 10, 0, 0, 0, prague)
	assert.Equal(t, "2024-01-15T09:00:00.000Z", timefmt.FormatISO(ts))

	parsed, err := timefmt.ParseISO("2024-01-15T09:00:00.123Z")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2024, time.January, 15, 9, 0, 0, 123_000_000, time.UTC)))

	_, err = timefmt.ParseISO("yesterday")
	assert.Error(t, err)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Leden 2024", timefmt.MonthLabel(2024, time.January))
	assert.Equal(t, "Prosinec 2023", timefmt.MonthLabel(2023, time.December))
	assert.Equal(t, "", timefmt.MonthName(13))
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		Date    timefmt.Date `json:"date"`
		DueDate timefmt.Date `json:"dueDate"`
	}

	in := wrapper{Date: timefmt.NewDate(2024, time.February, 29)}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-02-29","dueDate":""}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-01-02","dueDate":null}`), &out))
	assert.True(t, out.DueDate.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"date":"02/01/2024"}`), &out))
}

func TestParseDate_FullInstant(t *testing.T) {
	d, err := timefmt.ParseDate("2024-05-01T12:30:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", d.String())
	assert.Equal(t, "1. 5. 2024", d.Display())
}

func TestDate_Bounds(t *testing.T) {
	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	d := timefmt.NewDate(2024, time.March, 31)

	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, prague), d.Start(prague))
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, prague), d.End(prague))

	late := time.Date(2024, time.March, 31, 23, 30, 0, 0, prague)
	assert.Equal(t, d, timefmt.DateOf(late, prague))
	assert.Equal(t, timefmt.NewDate(2024, time.March, 31), timefmt.DateOf(late.UTC(), prague))
}

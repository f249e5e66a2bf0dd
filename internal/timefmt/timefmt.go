// Package timefmt converts durations, instants and calendar dates to the
// strings the ledger displays, exports and persists.
package timefmt

import (
	"fmt"
	"time"
)

// ISOLayout matches JavaScript's Date.prototype.toISOString output, which is
// how instants are stored in existing work log blobs.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

var czechMonths = [...]string{
	"Leden", "Únor", "Březen", "Duben", "Květen", "Červen",
	"Červenec", "Srpen", "Září", "Říjen", "Listopad", "Prosinec",
}

// FormatDuration formats milliseconds as HH:MM:SS. Hours are not capped.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes%60, seconds%60)
}

// FormatDate formats t as "D. M. YYYY" in t's location.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d. %d. %d", t.Day(), int(t.Month()), t.Year())
}

// FormatClock formats t as "HH:MM".
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// FormatDateTime joins FormatDate and FormatClock.
func FormatDateTime(t time.Time) string {
	return FormatDate(t) + " " + FormatClock(t)
}

// FileNameDate formats t as YYYY-MM-DD for generated file names.
func FileNameDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// FormatISO formats t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseISO parses an RFC 3339 instant with or without fractional seconds.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing instant %q: %w", s, err)
	}

	return t, nil
}

// MonthName returns the Czech name of m, e.g. "Leden".
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}

	return czechMonths[m-1]
}

// MonthLabel formats a year and month as "Leden 2024".
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", MonthName(month), year)
}

package timefmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar date without a time of day. The zero Date means "not set"
// and is stored as an empty string.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD". An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		// Older records occasionally carry a full instant.
		if ts, tsErr := time.Parse(time.RFC3339, s); tsErr == nil {
			return NewDate(ts.Year(), ts.Month(), ts.Day()), nil
		}

		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}

	return Date{Time: t}, nil
}

// DateOf returns the calendar date of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	local := t.In(loc)
	return NewDate(local.Year(), local.Month(), local.Day())
}

// String returns "YYYY-MM-DD", or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}

	return d.Format(time.DateOnly)
}

// Display formats the date as "D. M. YYYY", or "" for the zero Date.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}

	return FormatDate(d.Time)
}

// Start returns midnight of d in loc.
func (d Date) Start(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// End returns the exclusive upper bound of d in loc, i.e. midnight of the next day.
func (d Date) End(loc *time.Location) time.Time {
	return d.Start(loc).AddDate(0, 0, 1)
}

// Compare orders two dates, zero dates first.
func (d Date) Compare(other Date) int {
	return d.Time.Compare(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding date: %w", err)
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

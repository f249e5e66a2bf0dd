package worklog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

// WorkSession is one contiguous stretch of work by one person.
type WorkSession struct {
	ID         string
	Person     person.Person
	Activity   string
	Note       string
	StartTime  time.Time
	EndTime    time.Time
	DurationMs int64
	Earnings   int64
	// BreakMinutes is set only for manually entered sessions.
	BreakMinutes *int
}

// Hours returns the worked time in fractional hours.
func (w WorkSession) Hours() float64 {
	return person.Hours(w.DurationMs)
}

type wireSession struct {
	ID        string        `json:"id"`
	Person    person.Person `json:"person"`
	Activity  string        `json:"activity"`
	Note      string        `json:"note"`
	StartTime string        `json:"startTime"`
	EndTime   string        `json:"endTime"`
	Duration  int64         `json:"duration"`
	Earnings  int64         `json:"earnings"`
	BreakTime *int          `json:"breakTime,omitempty"`
}

func (w WorkSession) MarshalJSON() ([]byte, error) {
	return storage.Marshal(wireSession{
		ID:        w.ID,
		Person:    w.Person,
		Activity:  w.Activity,
		Note:      w.Note,
		StartTime: timefmt.FormatISO(w.StartTime),
		EndTime:   timefmt.FormatISO(w.EndTime),
		Duration:  w.DurationMs,
		Earnings:  w.Earnings,
		BreakTime: w.BreakMinutes,
	})
}

func (w *WorkSession) UnmarshalJSON(data []byte) error {
	var wire wireSession
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	start, err := timefmt.ParseISO(wire.StartTime)
	if err != nil {
		return fmt.Errorf("work session %s: %w", wire.ID, err)
	}

	end, err := timefmt.ParseISO(wire.EndTime)
	if err != nil {
		return fmt.Errorf("work session %s: %w", wire.ID, err)
	}

	*w = WorkSession{
		ID:           wire.ID,
		Person:       wire.Person,
		Activity:     wire.Activity,
		Note:         wire.Note,
		StartTime:    start,
		EndTime:      end,
		DurationMs:   wire.Duration,
		Earnings:     wire.Earnings,
		BreakMinutes: wire.BreakTime,
	}

	return nil
}

// ManualEntry is a work session typed in by hand: a calendar day with wall
// clock start and end times in the ledger's time zone.
type ManualEntry struct {
	Person       person.Person
	Date         timefmt.Date
	Start        string // HH:MM
	End          string // HH:MM
	BreakMinutes int
	Activity     string
	Note         string
}

// Filter narrows List results. Zero fields match everything; the date range is
// inclusive and compares the local calendar day of StartTime.
type Filter struct {
	Person    person.Person
	Activity  string
	StartDate timefmt.Date
	EndDate   timefmt.Date
}

// DayGroup holds the sessions that started on one local calendar day.
type DayGroup struct {
	Date          timefmt.Date
	Sessions      []WorkSession
	TotalHours    float64
	TotalEarnings int64
}

// Dimension selects the key Breakdown aggregates hours by.
type Dimension int

const (
	ByPerson Dimension = iota
	ByActivity
	ByMonth
)

// Bucket is one bar of a breakdown chart.
type Bucket struct {
	Label string
	Hours float64
}

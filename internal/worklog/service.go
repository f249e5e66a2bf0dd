// Package worklog records work sessions and answers the queries the ledger
// views run over them.
package worklog

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

var ErrNotFound = fmt.Errorf("work session %w", apperr.ErrNotFound)

var ErrDuplicateID = fmt.Errorf("%w: work session id already exists", apperr.ErrValidation)

type Service struct {
	store storage.Storage
	rates person.RateTable
	loc   *time.Location

	mu       sync.Mutex
	sessions []WorkSession
}

func NewService(store storage.Storage, rates person.RateTable, loc *time.Location) *Service {
	return &Service{
		store:    store,
		rates:    rates,
		loc:      loc,
		sessions: []WorkSession{},
	}
}

// Location is the zone calendar days are evaluated in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Reload replaces the in-memory collection with the persisted one.
func (s *Service) Reload(ctx context.Context) error {
	sessions, err := storage.LoadJSON[[]WorkSession](ctx, s.store, storage.KeyWorkLogs)
	if err != nil {
		return err
	}

	if sessions == nil {
		sessions = []WorkSession{}
	}

	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()

	return nil
}

// Create validates session, derives its duration and earnings and appends it.
// An empty ID is replaced with a fresh one.
func (s *Service) Create(ctx context.Context, session WorkSession) (WorkSession, error) {
	ws, err := s.normalize(session)
	if err != nil {
		return WorkSession{}, err
	}

	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.sessions, func(w WorkSession) bool { return w.ID == ws.ID }) {
		return WorkSession{}, fmt.Errorf("%w: %s", ErrDuplicateID, ws.ID)
	}

	next := append(slices.Clone(s.sessions), ws)
	if err := s.persist(ctx, next); err != nil {
		return WorkSession{}, err
	}

	return ws, nil
}

// CreateManual builds a session from a hand-typed entry and stores it.
func (s *Service) CreateManual(ctx context.Context, entry ManualEntry) (WorkSession, error) {
	ws, err := s.fromEntry(entry)
	if err != nil {
		return WorkSession{}, err
	}

	return s.Create(ctx, ws)
}

// Update replaces the session with the given id, keeping the id.
func (s *Service) Update(ctx context.Context, id string, session WorkSession) (WorkSession, error) {
	ws, err := s.normalize(session)
	if err != nil {
		return WorkSession{}, err
	}

	ws.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.sessions, func(w WorkSession) bool { return w.ID == id })
	if idx < 0 {
		return WorkSession{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := slices.Clone(s.sessions)
	next[idx] = ws

	if err := s.persist(ctx, next); err != nil {
		return WorkSession{}, err
	}

	return ws, nil
}

// UpdateManual rebuilds the session with the given id from a hand-typed entry.
func (s *Service) UpdateManual(ctx context.Context, id string, entry ManualEntry) (WorkSession, error) {
	ws, err := s.fromEntry(entry)
	if err != nil {
		return WorkSession{}, err
	}

	return s.Update(ctx, id, ws)
}

// Delete removes the session with the given id. Unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.sessions, func(w WorkSession) bool { return w.ID == id }) {
		return nil
	}

	next := slices.DeleteFunc(slices.Clone(s.sessions), func(w WorkSession) bool { return w.ID == id })

	return s.persist(ctx, next)
}

func (s *Service) Get(id string) (WorkSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.sessions {
		if w.ID == id {
			return w, nil
		}
	}

	return WorkSession{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns the sessions matching filter in storage order.
func (s *Service) List(filter Filter) []WorkSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	var from, until time.Time
	if !filter.StartDate.IsZero() {
		from = filter.StartDate.Start(s.loc)
	}

	if !filter.EndDate.IsZero() {
		until = filter.EndDate.End(s.loc)
	}

	out := make([]WorkSession, 0, len(s.sessions))

	for _, w := range s.sessions {
		if filter.Person != "" && w.Person != filter.Person {
			continue
		}

		if filter.Activity != "" && w.Activity != filter.Activity {
			continue
		}

		if !from.IsZero() && w.StartTime.Before(from) {
			continue
		}

		if !until.IsZero() && !w.StartTime.Before(until) {
			continue
		}

		out = append(out, w)
	}

	return out
}

// Activities returns the distinct activities seen in stored sessions, in
// first-seen order.
func (s *Service) Activities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string

	for _, w := range s.sessions {
		if !slices.Contains(out, w.Activity) {
			out = append(out, w.Activity)
		}
	}

	return out
}

// EntryFor converts a stored session back into the form a user edits.
func (s *Service) EntryFor(w WorkSession) ManualEntry {
	start := w.StartTime.In(s.loc)
	end := w.EndTime.In(s.loc)

	entry := ManualEntry{
		Person:   w.Person,
		Date:     timefmt.DateOf(start, s.loc),
		Start:    timefmt.FormatClock(start),
		End:      timefmt.FormatClock(end),
		Activity: w.Activity,
		Note:     w.Note,
	}

	if w.BreakMinutes != nil {
		entry.BreakMinutes = *w.BreakMinutes
	}

	return entry
}

// GroupByDay buckets sessions by the local calendar day they started on.
// Days are ordered most recent first; sessions keep their input order.
func (s *Service) GroupByDay(sessions []WorkSession) []DayGroup {
	index := make(map[timefmt.Date]int)

	var groups []DayGroup

	for _, w := range sessions {
		day := timefmt.DateOf(w.StartTime, s.loc)

		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Date: day})
		}

		g := &groups[i]
		g.Sessions = append(g.Sessions, w)
		g.TotalHours += w.Hours()
		g.TotalEarnings += w.Earnings
	}

	slices.SortStableFunc(groups, func(a, b DayGroup) int {
		return b.Date.Compare(a.Date)
	})

	return groups
}

// Breakdown sums hours per person, activity or month. Person and activity
// buckets appear in first-seen order; months are chronological.
func (s *Service) Breakdown(sessions []WorkSession, dim Dimension) []Bucket {
	type keyed struct {
		key string
		Bucket
	}

	index := make(map[string]int)

	var buckets []keyed

	for _, w := range sessions {
		var key, label string

		switch dim {
		case ByPerson:
			key, label = string(w.Person), w.Person.Title()
		case ByActivity:
			key, label = w.Activity, w.Activity
		case ByMonth:
			local := w.StartTime.In(s.loc)
			key = fmt.Sprintf("%04d-%02d", local.Year(), int(local.Month()))
			label = timefmt.MonthLabel(local.Year(), local.Month())
		}

		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, keyed{key: key, Bucket: Bucket{Label: label}})
		}

		buckets[i].Hours += w.Hours()
	}

	if dim == ByMonth {
		slices.SortFunc(buckets, func(a, b keyed) int { return cmp.Compare(a.key, b.key) })
	}

	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		out[i] = b.Bucket
	}

	return out
}

// SortByStartDesc orders sessions newest first, keeping ties in input order.
func SortByStartDesc(sessions []WorkSession) {
	slices.SortStableFunc(sessions, func(a, b WorkSession) int {
		return b.StartTime.Compare(a.StartTime)
	})
}

func (s *Service) normalize(w WorkSession) (WorkSession, error) {
	w.Activity = strings.TrimSpace(w.Activity)
	if w.Activity == "" {
		return WorkSession{}, fmt.Errorf("%w: activity is required", apperr.ErrValidation)
	}

	if w.StartTime.IsZero() || w.EndTime.IsZero() {
		return WorkSession{}, fmt.Errorf("%w: start and end are required", apperr.ErrValidation)
	}

	w.StartTime = w.StartTime.Round(0).Truncate(time.Millisecond)
	w.EndTime = w.EndTime.Round(0).Truncate(time.Millisecond)

	if !w.EndTime.After(w.StartTime) {
		return WorkSession{}, fmt.Errorf("%w: end must be after start", apperr.ErrValidation)
	}

	var breakMs int64

	if w.BreakMinutes != nil {
		if *w.BreakMinutes < 0 {
			return WorkSession{}, fmt.Errorf("%w: break cannot be negative", apperr.ErrValidation)
		}

		breakMs = int64(*w.BreakMinutes) * int64(time.Minute/time.Millisecond)
	}

	w.DurationMs = w.EndTime.Sub(w.StartTime).Milliseconds() - breakMs
	if w.DurationMs <= 0 {
		return WorkSession{}, fmt.Errorf("%w: break leaves no working time", apperr.ErrValidation)
	}

	earnings, err := s.rates.Earnings(w.Person, w.DurationMs)
	if err != nil {
		return WorkSession{}, err
	}

	w.Earnings = earnings

	return w, nil
}

func (s *Service) fromEntry(e ManualEntry) (WorkSession, error) {
	if e.Date.IsZero() {
		return WorkSession{}, fmt.Errorf("%w: date is required", apperr.ErrValidation)
	}

	start, err := s.clock(e.Date, e.Start)
	if err != nil {
		return WorkSession{}, err
	}

	end, err := s.clock(e.Date, e.End)
	if err != nil {
		return WorkSession{}, err
	}

	return WorkSession{
		Person:       e.Person,
		Activity:     e.Activity,
		Note:         e.Note,
		StartTime:    start,
		EndTime:      end,
		BreakMinutes: new(e.BreakMinutes),
	}, nil
}

func (s *Service) clock(d timefmt.Date, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", d.String()+" "+strings.TrimSpace(hhmm), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", apperr.ErrValidation, hhmm)
	}

	return t, nil
}

// persist saves next and swaps it in. Callers hold s.mu.
func (s *Service) persist(ctx context.Context, next []WorkSession) error {
	if err := storage.SaveJSON(ctx, s.store, storage.KeyWorkLogs, next); err != nil {
		slog.ErrorContext(ctx, "saving work logs", "error", err)
		return err
	}

	s.sessions = next

	return nil
}

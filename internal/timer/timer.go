// Package timer measures live work sessions. A Timer moves between Idle,
// Running and Paused and turns the elapsed time into a work session on Stop.
package timer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Recorder stores a finished session. *worklog.Service satisfies it.
type Recorder interface {
	Create(ctx context.Context, session worklog.WorkSession) (worklog.WorkSession, error)
}

// Snapshot is the observable state of a Timer at one instant.
type Snapshot struct {
	State    State
	Person   person.Person
	Activity string
	Note     string
	Elapsed  time.Duration
	Earnings int64
}

type Option func(*Timer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// WithTickInterval sets how often OnTick fires while running.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) { t.interval = d }
}

// WithOnTick registers a callback fired from a background goroutine while
// the timer runs. Pause, Stop and Reset wait for a callback in progress, so
// fn must not call back into the Timer.
func WithOnTick(fn func(Snapshot)) Option {
	return func(t *Timer) { t.onTick = fn }
}

type Timer struct {
	recorder Recorder
	rates    person.RateTable
	now      func() time.Time
	interval time.Duration
	onTick   func(Snapshot)

	mu          sync.Mutex
	state       State
	person      person.Person
	activity    string
	note        string
	accumulated time.Duration
	resumedAt   time.Time

	// generation invalidates tick goroutines from earlier runs.
	generation uint64
	stopTick   context.CancelFunc

	// deliverMu is held for the whole of one OnTick delivery.
	deliverMu sync.Mutex
}

func New(recorder Recorder, rates person.RateTable, opts ...Option) *Timer {
	t := &Timer{
		recorder: recorder,
		rates:    rates,
		now:      time.Now,
		interval: time.Second,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Start begins a new session from Idle or resumes a Paused one, adopting the
// given labels. Starting a running timer does nothing.
func (t *Timer) Start(ctx context.Context, p person.Person, activity, note string) error {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return fmt.Errorf("%w: activity is required", apperr.ErrValidation)
	}

	if _, err := t.rates.Rate(p); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case Running:
		return nil
	case Idle:
		t.accumulated = 0
	}

	t.person = p
	t.activity = activity
	t.note = note
	t.state = Running
	t.resumedAt = t.now()

	t.startTicking(ctx)

	return nil
}

// Pause freezes the elapsed time. It does nothing unless the timer runs.
func (t *Timer) Pause() {
	defer t.drainTicks()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return
	}

	t.accumulated = t.elapsed()
	t.state = Paused
	t.cancelTicking()
}

// Tick reports the current state without changing it.
func (t *Timer) Tick() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshot()
}

// Stop ends the session and hands it to the recorder. It returns nil when no
// session was started. If the recorder fails the timer stays paused with the
// elapsed time intact.
func (t *Timer) Stop(ctx context.Context) (*worklog.WorkSession, error) {
	defer t.drainTicks()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Idle {
		return nil, nil
	}

	end := t.now()
	elapsed := t.elapsed()

	t.accumulated = elapsed
	t.state = Paused
	t.cancelTicking()

	end = end.Round(0).Truncate(time.Millisecond)
	start := end.Add(-elapsed.Truncate(time.Millisecond))

	session, err := t.recorder.Create(ctx, worklog.WorkSession{
		Person:    t.person,
		Activity:  t.activity,
		Note:      t.note,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("recording session: %w", err)
	}

	t.clear()

	return &session, nil
}

// Reset discards the current session.
func (t *Timer) Reset() {
	defer t.drainTicks()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelTicking()
	t.clear()
}

func (t *Timer) clear() {
	t.state = Idle
	t.person = ""
	t.activity = ""
	t.note = ""
	t.accumulated = 0
	t.resumedAt = time.Time{}
}

func (t *Timer) elapsed() time.Duration {
	if t.state != Running {
		return t.accumulated
	}

	return t.accumulated + t.now().Sub(t.resumedAt)
}

func (t *Timer) snapshot() Snapshot {
	elapsed := t.elapsed()

	snap := Snapshot{
		State:    t.state,
		Person:   t.person,
		Activity: t.activity,
		Note:     t.note,
		Elapsed:  elapsed,
	}

	if t.state != Idle {
		snap.Earnings, _ = t.rates.Earnings(t.person, elapsed.Milliseconds())
	}

	return snap
}

// startTicking launches the callback loop. Callers hold t.mu.
func (t *Timer) startTicking(parent context.Context) {
	t.cancelTicking()

	if t.onTick == nil || t.interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	t.stopTick = cancel
	gen := t.generation

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if !t.deliver(gen) {
				return
			}
		}
	}()
}

// deliver hands one snapshot to onTick unless the loop of generation gen was
// cancelled in the meantime.
func (t *Timer) deliver(gen uint64) bool {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()

	t.mu.Lock()
	if gen != t.generation || t.state != Running {
		t.mu.Unlock()
		return false
	}

	snap := t.snapshot()
	t.mu.Unlock()

	t.onTick(snap)

	return true
}

// drainTicks waits for a delivery in progress. Callers must not hold t.mu.
func (t *Timer) drainTicks() {
	t.deliverMu.Lock()
	t.deliverMu.Unlock()
}

// cancelTicking stops any running loop. Safe to call repeatedly. Callers hold t.mu.
func (t *Timer) cancelTicking() {
	t.generation++

	if t.stopTick != nil {
		t.stopTick()
		t.stopTick = nil
	}
}

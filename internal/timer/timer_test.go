package timer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/memory"
	"github.com/MrJamesThe3rd/vykazy/internal/timer"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type failingRecorder struct {
	calls int
}

func (r *failingRecorder) Create(context.Context, worklog.WorkSession) (worklog.WorkSession, error) {
	r.calls++
	return worklog.WorkSession{}, apperr.ErrPersistence
}

func rates(t *testing.T) person.RateTable {
	t.Helper()

	table, err := person.NewRateTable(map[person.Person]decimal.Decimal{
		"maru":  decimal.NewFromInt(275),
		"marty": decimal.NewFromInt(400),
	})
	require.NoError(t, err)

	return table
}

func setup(t *testing.T) (*timer.Timer, *worklog.Service, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)}
	logs := worklog.NewService(memory.New(), rates(t), time.UTC)
	require.NoError(t, logs.Reload(context.Background()))

	return timer.New(logs, rates(t), timer.WithClock(clock.Now)), logs, clock
}

func TestTimer_StartStop(t *testing.T) {
	ctx := context.Background()
	tm, logs, clock := setup(t)

	require.NoError(t, tm.Start(ctx, "maru", "Programování", "api"))
	clock.Advance(2 * time.Hour)

	snap := tm.Tick()
	assert.Equal(t, timer.Running, snap.State)
	assert.Equal(t, 2*time.Hour, snap.Elapsed)
	assert.Equal(t, int64(550), snap.Earnings)

	session, err := tm.Stop(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, int64(7_200_000), session.DurationMs)
	assert.Equal(t, int64(550), session.Earnings)
	assert.True(t, clock.Now().Equal(session.EndTime))
	assert.True(t, clock.Now().Add(-2*time.Hour).Equal(session.StartTime))
	assert.Equal(t, "api", session.Note)
	assert.Nil(t, session.BreakMinutes)

	assert.Equal(t, timer.Idle, tm.Tick().State)
	assert.Len(t, logs.List(worklog.Filter{}), 1)
}

func TestTimer_PauseResume(t *testing.T) {
	ctx := context.Background()
	tm, _, clock := setup(t)

	require.NoError(t, tm.Start(ctx, "marty", "Grafika", ""))
	clock.Advance(time.Hour)
	tm.Pause()

	clock.Advance(3 * time.Hour)
	assert.Equal(t, timer.Paused, tm.Tick().State)
	assert.Equal(t, time.Hour, tm.Tick().Elapsed)

	tm.Pause()
	assert.Equal(t, time.Hour, tm.Tick().Elapsed)

	require.NoError(t, tm.Start(ctx, "marty", "Grafika", ""))
	clock.Advance(30 * time.Minute)

	session, err := tm.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5_400_000), session.DurationMs)
	assert.Equal(t, int64(600), session.Earnings)
	assert.True(t, clock.Now().Add(-90*time.Minute).Equal(session.StartTime))
}

func TestTimer_StartWhileRunningIsNoop(t *testing.T) {
	ctx := context.Background()
	tm, _, clock := setup(t)

	require.NoError(t, tm.Start(ctx, "maru", "Grafika", ""))
	clock.Advance(10 * time.Minute)

	require.NoError(t, tm.Start(ctx, "marty", "Marketing", ""))

	snap := tm.Tick()
	assert.Equal(t, 10*time.Minute, snap.Elapsed)
	assert.Equal(t, person.Person("maru"), snap.Person)
	assert.Equal(t, "Grafika", snap.Activity)
}

func TestTimer_StartValidation(t *testing.T) {
	tm, _, _ := setup(t)

	assert.ErrorIs(t, tm.Start(context.Background(), "maru", " ", ""), apperr.ErrValidation)
	assert.ErrorIs(t, tm.Start(context.Background(), "eve", "Grafika", ""), person.ErrUnknown)
	assert.Equal(t, timer.Idle, tm.Tick().State)
}

func TestTimer_StopWithoutStart(t *testing.T) {
	tm, logs, _ := setup(t)

	session, err := tm.Stop(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, logs.List(worklog.Filter{}))
}

func TestTimer_StopRecorderFailure(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)}
	rec := &failingRecorder{}
	tm := timer.New(rec, rates(t), timer.WithClock(clock.Now))

	require.NoError(t, tm.Start(ctx, "maru", "Grafika", ""))
	clock.Advance(time.Hour)

	session, err := tm.Stop(ctx)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	clock.Advance(time.Hour)

	snap := tm.Tick()
	assert.Equal(t, timer.Paused, snap.State)
	assert.Equal(t, time.Hour, snap.Elapsed)

	_, err = tm.Stop(ctx)
	assert.Error(t, err)
	assert.Equal(t, 2, rec.calls)
}

func TestTimer_Reset(t *testing.T) {
	ctx := context.Background()
	tm, logs, clock := setup(t)

	tm.Reset()

	require.NoError(t, tm.Start(ctx, "maru", "Grafika", ""))
	clock.Advance(time.Minute)
	tm.Reset()
	tm.Reset()

	snap := tm.Tick()
	assert.Equal(t, timer.Idle, snap.State)
	assert.Zero(t, snap.Elapsed)

	session, err := tm.Stop(ctx)
	assert.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, logs.List(worklog.Filter{}))
}

func TestTimer_OnTick(t *testing.T) {
	ticks := make(chan timer.Snapshot, 16)

	logs := worklog.NewService(memory.New(), rates(t), time.UTC)
	tm := timer.New(logs, rates(t),
		timer.WithTickInterval(5*time.Millisecond),
		timer.WithOnTick(func(s timer.Snapshot) {
			select {
			case ticks <- s:
			default:
			}
		}),
	)

	require.NoError(t, tm.Start(context.Background(), "maru", "Grafika", ""))

	select {
	case snap := <-ticks:
		assert.Equal(t, timer.Running, snap.State)
		assert.Equal(t, "Grafika", snap.Activity)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick delivered")
	}

	tm.Pause()
	tm.Pause()
	tm.Reset()

	// Drain anything already in flight, then make sure nothing else arrives.
	time.Sleep(20 * time.Millisecond)

	for len(ticks) > 0 {
		<-ticks
	}

	select {
	case <-ticks:
		t.Fatal("tick after cancellation")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestTimer_ResetWaitsForTickInFlight(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	var (
		mu    sync.Mutex
		calls int
	)

	count := func() int {
		mu.Lock()
		defer mu.Unlock()

		return calls
	}

	logs := worklog.NewService(memory.New(), rates(t), time.UTC)
	tm := timer.New(logs, rates(t),
		timer.WithTickInterval(5*time.Millisecond),
		timer.WithOnTick(func(timer.Snapshot) {
			mu.Lock()
			calls++
			mu.Unlock()

			select {
			case entered <- struct{}{}:
			default:
			}

			<-release
		}),
	)

	require.NoError(t, tm.Start(context.Background(), "maru", "Grafika", ""))

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick delivered")
	}

	resetDone := make(chan struct{})

	go func() {
		tm.Reset()
		close(resetDone)
	}()

	select {
	case <-resetDone:
		t.Fatal("Reset returned while a tick was still being delivered")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-resetDone

	afterReset := count()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, afterReset, count())
	assert.Equal(t, timer.Idle, tm.Tick().State)
}

func TestTimer_StopWaitsForTickInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	var states []timer.State

	var mu sync.Mutex

	logs := worklog.NewService(memory.New(), rates(t), time.UTC)
	require.NoError(t, logs.Reload(context.Background()))

	tm := timer.New(logs, rates(t),
		timer.WithTickInterval(5*time.Millisecond),
		timer.WithOnTick(func(s timer.Snapshot) {
			mu.Lock()
			states = append(states, s.State)
			mu.Unlock()

			select {
			case entered <- struct{}{}:
				<-release
			default:
			}
		}),
	)

	require.NoError(t, tm.Start(context.Background(), "maru", "Grafika", ""))
	<-entered

	stopped := make(chan struct{})

	go func() {
		_, _ = tm.Stop(context.Background())
		close(stopped)
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)
	<-stopped

	mu.Lock()
	delivered := len(states)
	mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.Len(t, states, delivered)

	for _, s := range states {
		assert.Equal(t, timer.Running, s)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", timer.Idle.String())
	assert.Equal(t, "running", timer.Running.String())
	assert.Equal(t, "paused", timer.Paused.String())
}

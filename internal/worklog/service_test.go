package worklog_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/memory"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

func prague(t *testing.T) *time.Location {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	return loc
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

func newService(t *testing.T) (*worklog.Service, *memory.Store) {
	t.Helper()

	store := memory.New()
	svc := worklog.NewService(store, rates(t), prague(t))
	require.NoError(t, svc.Reload(context.Background()))

	return svc, store
}

func TestService_Create(t *testing.T) {
	loc := prague(t)
	start := time.Date(2024, time.January, 15, 9, 0, 0, 0, loc)

	tests := []struct {
		name         string
		session      worklog.WorkSession
		wantDuration int64
		wantEarnings int64
		wantErr      error
	}{
		{
			name:         "TwoHoursMaru",
			session:      worklog.WorkSession{Person: "maru", Activity: "Programování", StartTime: start, EndTime: start.Add(2 * time.Hour)},
			wantDuration: 7_200_000,
			wantEarnings: 550,
		},
		{
			name:         "NinetyMinutesMarty",
			session:      worklog.WorkSession{Person: "marty", Activity: "Grafika", StartTime: start, EndTime: start.Add(90 * time.Minute)},
			wantDuration: 5_400_000,
			wantEarnings: 600,
		},
		{
			name:    "EndBeforeStart",
			session: worklog.WorkSession{Person: "maru", Activity: "Grafika", StartTime: start, EndTime: start.Add(-time.Minute)},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "EndEqualsStart",
			session: worklog.WorkSession{Person: "maru", Activity: "Grafika", StartTime: start, EndTime: start},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "MissingActivity",
			session: worklog.WorkSession{Person: "maru", Activity: "  ", StartTime: start, EndTime: start.Add(time.Hour)},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "UnknownPerson",
			session: worklog.WorkSession{Person: "eve", Activity: "Grafika", StartTime: start, EndTime: start.Add(time.Hour)},
			wantErr: person.ErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)

			got, err := svc.Create(context.Background(), tt.session)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, svc.List(worklog.Filter{}))

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.wantDuration, got.DurationMs)
			assert.Equal(t, tt.wantEarnings, got.Earnings)
			assert.Len(t, svc.List(worklog.Filter{}), 1)
		})
	}
}

func TestService_CreateDuplicateID(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 9, 0, 0, 0, prague(t))
	svc, _ := newService(t)

	_, err := svc.Create(ctx, worklog.WorkSession{
		ID: "w1", Person: "maru", Activity: "Grafika", StartTime: start, EndTime: start.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, worklog.WorkSession{
		ID: "w1", Person: "marty", Activity: "Výuka", StartTime: start, EndTime: start.Add(2 * time.Hour),
	})
	require.ErrorIs(t, err, worklog.ErrDuplicateID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.Len(t, svc.List(worklog.Filter{}), 1)

	ws, err := svc.Get("w1")
	require.NoError(t, err)
	assert.Equal(t, "Grafika", ws.Activity)
}

func TestService_CreateManual(t *testing.T) {
	day := timefmt.NewDate(2024, time.March, 4)

	tests := []struct {
		name         string
		entry        worklog.ManualEntry
		wantDuration int64
		wantErr      bool
	}{
		{
			name:         "WithBreak",
			entry:        worklog.ManualEntry{Person: "maru", Date: day, Start: "08:00", End: "12:30", BreakMinutes: 30, Activity: "Schůzky"},
			wantDuration: 4 * 3_600_000,
		},
		{
			name:         "NoBreak",
			entry:        worklog.ManualEntry{Person: "marty", Date: day, Start: "13:00", End: "14:15", Activity: "Marketing"},
			wantDuration: 75 * 60_000,
		},
		{
			name:    "BreakConsumesInterval",
			entry:   worklog.ManualEntry{Person: "maru", Date: day, Start: "08:00", End: "09:00", BreakMinutes: 60, Activity: "Schůzky"},
			wantErr: true,
		},
		{
			name:    "EndBeforeStart",
			entry:   worklog.ManualEntry{Person: "maru", Date: day, Start: "10:00", End: "09:00", Activity: "Schůzky"},
			wantErr: true,
		},
		{
			name:    "NegativeBreak",
			entry:   worklog.ManualEntry{Person: "maru", Date: day, Start: "08:00", End: "09:00", BreakMinutes: -5, Activity: "Schůzky"},
			wantErr: true,
		},
		{
			name:    "BadClock",
			entry:   worklog.ManualEntry{Person: "maru", Date: day, Start: "8 ráno", End: "09:00", Activity: "Schůzky"},
			wantErr: true,
		},
		{
			name:    "MissingDate",
			entry:   worklog.ManualEntry{Person: "maru", Start: "08:00", End: "09:00", Activity: "Schůzky"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)

			got, err := svc.CreateManual(context.Background(), tt.entry)

			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDuration, got.DurationMs)
			require.NotNil(t, got.BreakMinutes)
			assert.Equal(t, tt.entry.BreakMinutes, *got.BreakMinutes)
			assert.Equal(t, tt.entry, svc.EntryFor(got))
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	day := timefmt.NewDate(2024, time.March, 4)

	created, err := svc.CreateManual(ctx, worklog.ManualEntry{Person: "maru", Date: day, Start: "08:00", End: "10:00", Activity: "Grafika"})
	require.NoError(t, err)

	t.Run("KeepsID", func(t *testing.T) {
		updated, err := svc.UpdateManual(ctx, created.ID, worklog.ManualEntry{Person: "marty", Date: day, Start: "08:00", End: "09:30", Activity: "Grafika", Note: "logo"})
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, int64(600), updated.Earnings)

		got, err := svc.Get(created.ID)
		require.NoError(t, err)
		assert.Equal(t, "logo", got.Note)
	})

	t.Run("MissingID", func(t *testing.T) {
		before := svc.List(worklog.Filter{})

		_, err := svc.Update(ctx, "missing", created)
		assert.ErrorIs(t, err, worklog.ErrNotFound)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Equal(t, before, svc.List(worklog.Filter{}))
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	start := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

	keep, err := svc.Create(ctx, worklog.WorkSession{Person: "maru", Activity: "A", StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)

	drop, err := svc.Create(ctx, worklog.WorkSession{Person: "maru", Activity: "B", StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, drop.ID))
	require.NoError(t, svc.Delete(ctx, drop.ID))

	list := svc.List(worklog.Filter{})
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	_, err = svc.Get(drop.ID)
	assert.ErrorIs(t, err, worklog.ErrNotFound)
}

func TestService_ListDateRange(t *testing.T) {
	ctx := context.Background()
	loc := prague(t)
	svc, _ := newService(t)

	create := func(start time.Time, p person.Person, activity string) {
		t.Helper()

		_, err := svc.Create(ctx, worklog.WorkSession{Person: p, Activity: activity, StartTime: start, EndTime: start.Add(time.Minute)})
		require.NoError(t, err)
	}

	create(time.Date(2024, time.January, 9, 23, 59, 59, 0, loc), "maru", "A")
	create(time.Date(2024, time.January, 10, 0, 0, 0, 0, loc), "maru", "A")
	create(time.Date(2024, time.January, 20, 23, 59, 59, 999_000_000, loc), "marty", "B")
	create(time.Date(2024, time.January, 21, 0, 0, 0, 0, loc), "marty", "A")

	tests := []struct {
		name   string
		filter worklog.Filter
		want   int
	}{
		{name: "Empty", filter: worklog.Filter{}, want: 4},
		{name: "InclusiveRange", filter: worklog.Filter{StartDate: timefmt.NewDate(2024, time.January, 10), EndDate: timefmt.NewDate(2024, time.January, 20)}, want: 2},
		{name: "OpenStart", filter: worklog.Filter{EndDate: timefmt.NewDate(2024, time.January, 10)}, want: 2},
		{name: "OpenEnd", filter: worklog.Filter{StartDate: timefmt.NewDate(2024, time.January, 21)}, want: 1},
		{name: "Person", filter: worklog.Filter{Person: "marty"}, want: 2},
		{name: "PersonAndActivity", filter: worklog.Filter{Person: "marty", Activity: "A"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, svc.List(tt.filter), tt.want)
		})
	}
}

func TestService_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := storage.NewMockStorage(ctrl)
	store.EXPECT().Load(gomock.Any(), storage.KeyWorkLogs).Return([]byte("[]"), nil)
	store.EXPECT().Save(gomock.Any(), storage.KeyWorkLogs, gomock.Any()).Return(errors.New("quota exceeded"))

	svc := worklog.NewService(store, rates(t), prague(t))
	require.NoError(t, svc.Reload(ctx))

	start := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, worklog.WorkSession{Person: "maru", Activity: "A", StartTime: start, EndTime: start.Add(time.Hour)})
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Empty(t, svc.List(worklog.Filter{}))
}

func TestService_ReloadLegacyBlob(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	blob := `[{"id":"lq3x9k2abc","person":"maru","activity":"Programování","note":"","startTime":"2024-01-15T08:00:00.000Z","endTime":"2024-01-15T10:00:00.000Z","duration":7200000,"earnings":550}]`
	require.NoError(t, store.Save(ctx, storage.KeyWorkLogs, []byte(blob)))

	svc := worklog.NewService(store, rates(t), prague(t))
	require.NoError(t, svc.Reload(ctx))

	got, err := svc.Get("lq3x9k2abc")
	require.NoError(t, err)
	assert.Nil(t, got.BreakMinutes)
	assert.Equal(t, int64(550), got.Earnings)

	data, err := json.Marshal([]worklog.WorkSession{got})
	require.NoError(t, err)
	assert.Equal(t, blob, string(data))
}

func TestService_PersistsWireFormat(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	_, err := svc.CreateManual(ctx, worklog.ManualEntry{
		Person: "maru", Date: timefmt.NewDate(2024, time.July, 1), Start: "09:00", End: "10:00", Activity: "Grafika",
	})
	require.NoError(t, err)

	blob, err := store.Load(ctx, storage.KeyWorkLogs)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(blob, &raw))
	require.Len(t, raw, 1)

	assert.Equal(t, "2024-07-01T07:00:00.000Z", raw[0]["startTime"])
	assert.Equal(t, "2024-07-01T08:00:00.000Z", raw[0]["endTime"])
	assert.InDelta(t, 3_600_000, raw[0]["duration"], 0)
	assert.InDelta(t, 275, raw[0]["earnings"], 0)
	assert.InDelta(t, 0, raw[0]["breakTime"], 0)
}

func TestService_GroupByDay(t *testing.T) {
	loc := prague(t)
	svc, _ := newService(t)

	mk := func(id string, start time.Time, earnings int64) worklog.WorkSession {
		return worklog.WorkSession{ID: id, StartTime: start, EndTime: start.Add(time.Hour), DurationMs: 3_600_000, Earnings: earnings}
	}

	sessions := []worklog.WorkSession{
		mk("a", time.Date(2024, time.May, 1, 8, 0, 0, 0, loc), 100),
		mk("b", time.Date(2024, time.May, 2, 8, 0, 0, 0, loc), 200),
		mk("c", time.Date(2024, time.May, 1, 23, 30, 0, 0, loc), 300),
	}

	groups := svc.GroupByDay(sessions)
	require.Len(t, groups, 2)

	assert.Equal(t, timefmt.NewDate(2024, time.May, 2), groups[0].Date)
	assert.Equal(t, timefmt.NewDate(2024, time.May, 1), groups[1].Date)

	require.Len(t, groups[1].Sessions, 2)
	assert.Equal(t, "a", groups[1].Sessions[0].ID)
	assert.Equal(t, "c", groups[1].Sessions[1].ID)
	assert.InDelta(t, 2.0, groups[1].TotalHours, 1e-9)
	assert.Equal(t, int64(400), groups[1].TotalEarnings)

	assert.Empty(t, svc.GroupByDay(nil))
}

func TestService_Breakdown(t *testing.T) {
	loc := prague(t)
	svc, _ := newService(t)

	mk := func(p person.Person, activity string, start time.Time, hours float64) worklog.WorkSession {
		return worklog.WorkSession{Person: p, Activity: activity, StartTime: start, DurationMs: int64(hours * 3_600_000)}
	}

	sessions := []worklog.WorkSession{
		mk("marty", "Grafika", time.Date(2024, time.February, 3, 10, 0, 0, 0, loc), 1),
		mk("maru", "Marketing", time.Date(2023, time.December, 31, 10, 0, 0, 0, loc), 2),
		mk("marty", "Marketing", time.Date(2024, time.January, 5, 10, 0, 0, 0, loc), 0.5),
	}

	assert.Equal(t, []worklog.Bucket{{Label: "Marty", Hours: 1.5}, {Label: "Maru", Hours: 2}}, svc.Breakdown(sessions, worklog.ByPerson))
	assert.Equal(t, []worklog.Bucket{{Label: "Grafika", Hours: 1}, {Label: "Marketing", Hours: 2.5}}, svc.Breakdown(sessions, worklog.ByActivity))
	assert.Equal(t, []worklog.Bucket{
		{Label: "Prosinec 2023", Hours: 2},
		{Label: "Leden 2024", Hours: 0.5},
		{Label: "Únor 2024", Hours: 1},
	}, svc.Breakdown(sessions, worklog.ByMonth))
}

func TestSortByStartDesc(t *testing.T) {
	base := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)

	sessions := []worklog.WorkSession{
		{ID: "old", StartTime: base},
		{ID: "new", StartTime: base.Add(time.Hour)},
		{ID: "tie", StartTime: base},
	}

	worklog.SortByStartDesc(sessions)

	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "old", sessions[1].ID)
	assert.Equal(t, "tie", sessions[2].ID)
}

package backup_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/backup"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/memory"
)

type failingStore struct {
	*memory.Store
	failOn storage.Key
}

func (f *failingStore) Save(ctx context.Context, key storage.Key, blob []byte) error {
	if key == f.failOn {
		return errors.New("disk full")
	}

	return f.Store.Save(ctx, key, blob)
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.New()
	require.NoError(t, storage.Seed(context.Background(), store))

	return store
}

func TestFileName(t *testing.T) {
	got := backup.FileName(time.Date(2024, time.March, 5, 22, 0, 0, 0, time.UTC))
	assert.Equal(t, "pracovni-vykazy-zaloha-2024-03-05.json", got)
}

func TestService_Export(t *testing.T) {
	ctx := context.Background()
	store := seeded(t)
	require.NoError(t, store.Save(ctx, storage.KeyFinanceRecords, []byte(`[{"id":"f1","description":"A & B"}]`)))

	var buf bytes.Buffer
	require.NoError(t, backup.NewService(store).Export(ctx, &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \"workLogs\": []"))
	assert.True(t, strings.HasSuffix(out, "\"version\": \"1.0\"\n}"))
	assert.Contains(t, out, "A & B")

	order := []string{"workLogs", "financeRecords", "taskCategories", "expenseCategories", "debts", "debtPayments", "rentSettings", "version"}
	last := -1

	for _, key := range order {
		idx := strings.Index(out, `"`+key+`"`)
		require.Greater(t, idx, last, key)
		last = idx
	}
}

func TestService_Export_MissingKeysUseDefaults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, backup.NewService(memory.New()).Export(context.Background(), &buf))

	assert.Contains(t, buf.String(), `"Programování"`)
	assert.Contains(t, buf.String(), `"day": 1`)
}

func TestService_Restore(t *testing.T) {
	ctx := context.Background()
	store := seeded(t)
	cfg := settings.NewService(store)
	require.NoError(t, cfg.Reload(ctx))

	doc := "\ufeff" + `{
  "workLogs": [{"id":"w1","person":"maru","activity":"Grafika","startTime":"2024-03-05T08:00:00.000Z","endTime":"2024-03-05T10:00:00.000Z","duration":7200000,"earnings":550}],
  "financeRecords": [],
  "taskCategories": ["Výuka"],
  "version": "1.0"
}`

	require.NoError(t, backup.NewService(store, cfg).Restore(ctx, strings.NewReader(doc)))

	tests := []struct {
		key  storage.Key
		want string
	}{
		{key: storage.KeyFinanceRecords, want: `[]`},
		{key: storage.KeyTaskCategories, want: `["Výuka"]`},
		{key: storage.KeyExpenseCategories, want: `[]`},
		{key: storage.KeyDebts, want: `[]`},
		{key: storage.KeyDebtPayments, want: `[]`},
		{key: storage.KeyRentSettings, want: `{"amount":0,"day":1}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			blob, err := store.Load(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(blob))
		})
	}

	blob, err := store.Load(ctx, storage.KeyWorkLogs)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"id":"w1"`)

	assert.Equal(t, []string{"Výuka"}, cfg.TaskCategories())
	assert.Empty(t, cfg.ExpenseCategories())
}

func TestService_Restore_AcceptsAnyVersionValue(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "String", version: `"1.0"`},
		{name: "Number", version: `1`},
		{name: "Float", version: `2.5`},
		{name: "Object", version: `{"major":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := seeded(t)

			doc := `{"version":` + tt.version + `,"workLogs":[],"financeRecords":[],"taskCategories":["Úklid"]}`
			require.NoError(t, backup.NewService(store).Restore(ctx, strings.NewReader(doc)))

			blob, err := store.Load(ctx, storage.KeyTaskCategories)
			require.NoError(t, err)
			assert.JSONEq(t, `["Úklid"]`, string(blob))
		})
	}
}

func TestService_Restore_Rejected(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "NotJSON", doc: "hello"},
		{name: "Array", doc: `[]`},
		{name: "NoVersion", doc: `{"workLogs":[],"financeRecords":[]}`},
		{name: "NullVersion", doc: `{"version":null,"workLogs":[],"financeRecords":[]}`},
		{name: "EmptyVersion", doc: `{"version":"","workLogs":[],"financeRecords":[]}`},
		{name: "ZeroVersion", doc: `{"version":0,"workLogs":[],"financeRecords":[]}`},
		{name: "FalseVersion", doc: `{"version":false,"workLogs":[],"financeRecords":[]}`},
		{name: "NoWorkLogs", doc: `{"version":"1.0","financeRecords":[]}`},
		{name: "NullFinance", doc: `{"version":"1.0","workLogs":[],"financeRecords":null}`},
		{name: "BadRecord", doc: `{"version":"1.0","workLogs":[],"financeRecords":[{"amount":"many"}]}`},
		{name: "BadRent", doc: `{"version":"1.0","workLogs":[],"financeRecords":[],"rentSettings":[1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := seeded(t)

			err := backup.NewService(store).Restore(ctx, strings.NewReader(tt.doc))
			require.ErrorIs(t, err, apperr.ErrFormat)

			blob, err := store.Load(ctx, storage.KeyTaskCategories)
			require.NoError(t, err)
			assert.Contains(t, string(blob), "Programování")
		})
	}
}

func TestService_Restore_RollsBackOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: seeded(t), failOn: storage.KeyDebts}
	require.NoError(t, store.Store.Save(ctx, storage.KeyWorkLogs, []byte(`[{"id":"old"}]`)))

	doc := `{"version":"1.0","workLogs":[],"financeRecords":[],"taskCategories":["X"]}`

	err := backup.NewService(store).Restore(ctx, strings.NewReader(doc))
	require.ErrorIs(t, err, apperr.ErrPersistence)

	blob, err := store.Load(ctx, storage.KeyWorkLogs)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"old"}]`, string(blob))

	blob, err = store.Load(ctx, storage.KeyTaskCategories)
	require.NoError(t, err)
	assert.Contains(t, string(blob), "Programování")
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()
	store := seeded(t)
	cfg := settings.NewService(store)

	require.NoError(t, cfg.Reload(ctx))
	require.NoError(t, cfg.AddTaskCategory(ctx, "Výuka"))
	require.NoError(t, store.Save(ctx, storage.KeyDebts, []byte(`[{"id":"d1"}]`)))

	require.NoError(t, backup.NewService(store, cfg).Clear(ctx))

	blob, err := store.Load(ctx, storage.KeyDebts)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(blob))
	assert.Equal(t, storage.DefaultTaskCategories, cfg.TaskCategories())
}

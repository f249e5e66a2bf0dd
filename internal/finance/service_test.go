package finance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/memory"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

func newService(t *testing.T) (*finance.Service, *memory.Store) {
	t.Helper()

	store := memory.New()
	svc := finance.NewService(store)
	require.NoError(t, svc.Reload(context.Background()))

	return svc, store
}

func params(typ finance.Type, day int, desc, amount string) finance.CreateParams {
	return finance.CreateParams{
		Type:        typ,
		Date:        timefmt.NewDate(2024, time.March, day),
		Description: desc,
		Category:    "Jídlo",
		Amount:      decimal.RequireFromString(amount),
		Currency:    "CZK",
	}
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name    string
		params  finance.CreateParams
		wantErr bool
	}{
		{name: "Success", params: params(finance.TypeExpense, 1, "Nákup", "1234.5")},
		{name: "ZeroAmount", params: params(finance.TypeExpense, 1, "Nákup", "0"), wantErr: true},
		{name: "NegativeAmount", params: params(finance.TypeIncome, 1, "Výplata", "-5"), wantErr: true},
		{name: "MissingDescription", params: params(finance.TypeIncome, 1, " ", "5"), wantErr: true},
		{name: "MissingDate", params: finance.CreateParams{Type: finance.TypeIncome, Description: "x", Amount: decimal.NewFromInt(1)}, wantErr: true},
		{name: "UnknownType", params: params("transfer", 1, "x", "5"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)

			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				assert.Empty(t, svc.List())

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Len(t, svc.List(), 1)
		})
	}
}

func TestService_PersistsWireFormat(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	rec, err := svc.Create(ctx, params(finance.TypeExpense, 5, "Nájem & energie", "12500.5"))
	require.NoError(t, err)

	blob, err := store.Load(ctx, storage.KeyFinanceRecords)
	require.NoError(t, err)

	want := `[{"id":"` + rec.ID + `","type":"expense","date":"2024-03-05","description":"Nájem & energie","category":"Jídlo","amount":12500.5,"currency":"CZK"}]`
	assert.Equal(t, want, string(blob))
}

func TestService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	rec, err := svc.Create(ctx, params(finance.TypeExpense, 1, "Nákup", "100"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, rec.ID, params(finance.TypeIncome, 2, "Vratka", "40"))
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)

	got, err := svc.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.TypeIncome, got.Type)

	_, err = svc.Update(ctx, "missing", params(finance.TypeIncome, 2, "Vratka", "40"))
	assert.ErrorIs(t, err, finance.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	require.NoError(t, svc.Delete(ctx, rec.ID))
	assert.Empty(t, svc.List())
}

func TestService_ListOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for _, p := range []finance.CreateParams{
		params(finance.TypeExpense, 1, "first", "1"),
		params(finance.TypeExpense, 3, "newest", "1"),
		params(finance.TypeExpense, 1, "second", "1"),
	} {
		_, err := svc.Create(ctx, p)
		require.NoError(t, err)
	}

	list := svc.List()
	require.Len(t, list, 3)
	assert.Equal(t, "newest", list[0].Description)
	assert.Equal(t, "first", list[1].Description)
	assert.Equal(t, "second", list[2].Description)
}

func TestSummarize(t *testing.T) {
	records := []finance.Record{
		{Type: finance.TypeIncome, Amount: decimal.NewFromInt(1000), Currency: "CZK"},
		{Type: finance.TypeExpense, Amount: decimal.RequireFromString("250.5"), Currency: "CZK"},
		{Type: finance.TypeExpense, Amount: decimal.NewFromInt(20), Currency: "EUR"},
	}

	totals := finance.Summarize(records)
	require.Len(t, totals, 2)

	assert.Equal(t, "CZK", totals[0].Currency)
	assert.True(t, decimal.RequireFromString("749.5").Equal(totals[0].Balance()))
	assert.Equal(t, "EUR", totals[1].Currency)
	assert.True(t, decimal.NewFromInt(-20).Equal(totals[1].Balance()))
}

func TestService_ImportBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("NoConflicts", func(t *testing.T) {
		svc, _ := newService(t)

		res, err := svc.ImportBatch(ctx, []finance.CreateParams{
			params(finance.TypeExpense, 1, "A", "10"),
			params(finance.TypeIncome, 2, "B", "20"),
		})
		require.NoError(t, err)
		assert.Len(t, res.Imported, 2)
		assert.Empty(t, res.Conflicts)
		assert.Len(t, svc.List(), 2)
	})

	t.Run("Conflicts", func(t *testing.T) {
		svc, _ := newService(t)

		existing, err := svc.Create(ctx, params(finance.TypeExpense, 1, "A", "10.00"))
		require.NoError(t, err)

		res, err := svc.ImportBatch(ctx, []finance.CreateParams{
			params(finance.TypeExpense, 1, "A", "10"),
			params(finance.TypeIncome, 2, "B", "20"),
		})
		require.NoError(t, err)

		assert.Empty(t, res.Imported)
		require.Len(t, res.Conflicts, 1)
		assert.Equal(t, existing.ID, res.Conflicts[0].Existing.ID)
		require.Len(t, res.New, 1)
		assert.Equal(t, "B", res.New[0].Description)
		assert.Len(t, svc.List(), 1)

		recs, err := svc.CreateBatch(ctx, res.New)
		require.NoError(t, err)
		assert.Len(t, recs, 1)
		assert.Len(t, svc.List(), 2)
	})

	t.Run("Empty", func(t *testing.T) {
		svc, _ := newService(t)

		res, err := svc.ImportBatch(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Imported)
	})

	t.Run("InvalidRow", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.ImportBatch(ctx, []finance.CreateParams{params(finance.TypeExpense, 1, "A", "0")})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestService_Duplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	existing, err := svc.Create(ctx, params(finance.TypeExpense, 1, "A", "10.00"))
	require.NoError(t, err)

	dups := svc.Duplicates([]finance.CreateParams{
		params(finance.TypeExpense, 1, " A ", "10"),
		params(finance.TypeIncome, 1, "A", "10"),
		params(finance.TypeExpense, 2, "A", "10"),
	})
	require.Len(t, dups, 3)

	require.NotNil(t, dups[0])
	assert.Equal(t, existing.ID, dups[0].ID)
	assert.Nil(t, dups[1])
	assert.Nil(t, dups[2])
	assert.Len(t, svc.List(), 1)
}

func TestService_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := storage.NewMockStorage(ctrl)
	store.EXPECT().Load(gomock.Any(), storage.KeyFinanceRecords).Return(nil, storage.ErrNotFound)
	store.EXPECT().Save(gomock.Any(), storage.KeyFinanceRecords, gomock.Any()).Return(errors.New("disk full")).Times(2)

	svc := finance.NewService(store)
	require.NoError(t, svc.Reload(ctx))

	_, err := svc.Create(ctx, params(finance.TypeExpense, 1, "A", "10"))
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	_, err = svc.CreateBatch(ctx, []finance.CreateParams{params(finance.TypeExpense, 1, "A", "10")})
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	assert.Empty(t, svc.List())
}

package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/memory"
)

func newService(t *testing.T) (*settings.Service, *memory.Store) {
	t.Helper()

	ctx := context.Background()
	store := memory.New()
	require.NoError(t, storage.Seed(ctx, store))

	svc := settings.NewService(store)
	require.NoError(t, svc.Reload(ctx))

	return svc, store
}

func TestService_Categories(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	assert.Equal(t, storage.DefaultTaskCategories, svc.TaskCategories())

	require.NoError(t, svc.AddTaskCategory(ctx, "  Účetnictví "))
	assert.Contains(t, svc.TaskCategories(), "Účetnictví")

	assert.ErrorIs(t, svc.AddTaskCategory(ctx, "Účetnictví"), apperr.ErrValidation)
	assert.ErrorIs(t, svc.AddTaskCategory(ctx, " "), apperr.ErrValidation)

	require.NoError(t, svc.RemoveExpenseCategory(ctx, "Zábava"))
	require.NoError(t, svc.RemoveExpenseCategory(ctx, "Zábava"))
	assert.NotContains(t, svc.ExpenseCategories(), "Zábava")

	blob, err := store.Load(ctx, storage.KeyExpenseCategories)
	require.NoError(t, err)
	assert.Equal(t, `["Bydlení","Jídlo","Doprava","Ostatní"]`, string(blob))

	require.NoError(t, svc.AddExpenseCategory(ctx, "Děti"))
	assert.Equal(t, "Děti", svc.ExpenseCategories()[4])
}

func TestService_Rent(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	assert.Equal(t, 1, svc.Rent().Day)
	assert.True(t, svc.Rent().Amount.IsZero())

	tests := []struct {
		name    string
		rent    settings.Rent
		wantErr bool
	}{
		{name: "Valid", rent: settings.Rent{Amount: decimal.NewFromInt(15000), Day: 15}},
		{name: "DayZero", rent: settings.Rent{Amount: decimal.NewFromInt(1), Day: 0}, wantErr: true},
		{name: "DayTooLate", rent: settings.Rent{Amount: decimal.NewFromInt(1), Day: 32}, wantErr: true},
		{name: "Negative", rent: settings.Rent{Amount: decimal.NewFromInt(-1), Day: 5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SetRent(ctx, tt.rent)

			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}

			require.NoError(t, err)
		})
	}

	blob, err := store.Load(ctx, storage.KeyRentSettings)
	require.NoError(t, err)
	assert.Equal(t, `{"amount":15000,"day":15}`, string(blob))
	assert.Equal(t, 15, svc.Rent().Day)
}

func TestService_SaveFailureKeepsMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := storage.NewMockStorage(ctrl)
	store.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound).Times(3)
	store.EXPECT().Save(gomock.Any(), storage.KeyTaskCategories, gomock.Any()).Return(errors.New("read-only"))

	svc := settings.NewService(store)
	require.NoError(t, svc.Reload(ctx))

	err := svc.AddTaskCategory(ctx, "Nová")
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Empty(t, svc.TaskCategories())
	assert.Equal(t, settings.DefaultRent, svc.Rent())
}

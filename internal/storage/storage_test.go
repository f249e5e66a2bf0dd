package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/memory"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.Save(ctx, storage.KeyTaskCategories, []byte(`["Custom"]`)))
	require.NoError(t, storage.Seed(ctx, s))

	got, err := s.Load(ctx, storage.KeyTaskCategories)
	require.NoError(t, err)
	assert.Equal(t, `["Custom"]`, string(got))

	got, err = s.Load(ctx, storage.KeyExpenseCategories)
	require.NoError(t, err)
	assert.Equal(t, `["Bydlení","Jídlo","Doprava","Zábava","Ostatní"]`, string(got))

	got, err = s.Load(ctx, storage.KeyRentSettings)
	require.NoError(t, err)
	assert.Equal(t, `{"amount":0,"day":1}`, string(got))

	for _, key := range []storage.Key{storage.KeyWorkLogs, storage.KeyFinanceRecords, storage.KeyDebts, storage.KeyDebtPayments} {
		got, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(got), key)
	}
}

func TestSeed_LoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storage.NewMockStorage(ctrl)
	s.EXPECT().Load(gomock.Any(), storage.KeyWorkLogs).Return(nil, errors.New("disk on fire"))

	assert.Error(t, storage.Seed(context.Background(), s))
}

func TestLoadJSON(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	got, err := storage.LoadJSON[[]string](ctx, s, storage.KeyTaskCategories)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, storage.SaveJSON(ctx, s, storage.KeyTaskCategories, []string{"A&B", "<x>"}))

	blob, err := s.Load(ctx, storage.KeyTaskCategories)
	require.NoError(t, err)
	assert.Equal(t, `["A&B","<x>"]`, string(blob))

	got, err = storage.LoadJSON[[]string](ctx, s, storage.KeyTaskCategories)
	require.NoError(t, err)
	assert.Equal(t, []string{"A&B", "<x>"}, got)

	require.NoError(t, s.Save(ctx, storage.KeyDebts, []byte("{broken")))

	_, err = storage.LoadJSON[[]string](ctx, s, storage.KeyDebts)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func TestSaveJSON_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storage.NewMockStorage(ctrl)
	s.EXPECT().Save(gomock.Any(), storage.KeyDebts, []byte("[]")).Return(errors.New("quota exceeded"))

	err := storage.SaveJSON(context.Background(), s, storage.KeyDebts, []string{})
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.ErrorContains(t, err, "quota exceeded")
}

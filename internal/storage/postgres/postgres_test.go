package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/vykazy/internal/database"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/postgres"
)

// Runs against a real server only when VYKAZY_TEST_POSTGRES holds a connection string.
func TestStore_RoundTrip(t *testing.T) {
	connStr := os.Getenv("VYKAZY_TEST_POSTGRES")
	if connStr == "" {
		t.Skip("VYKAZY_TEST_POSTGRES not set")
	}

	ctx := context.Background()

	db, err := database.New(ctx, connStr)
	require.NoError(t, err)

	s, err := postgres.New(ctx, db)
	require.NoError(t, err)

	defer s.Close()

	_, err = db.ExecContext(ctx, `DELETE FROM collections WHERE key = $1`, string(storage.KeyDebts))
	require.NoError(t, err)

	_, err = s.Load(ctx, storage.KeyDebts)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	blob := `[{"id":"b","amount":12.5,"remaining":12.5}]`
	require.NoError(t, s.Save(ctx, storage.KeyDebts, []byte(blob)))

	got, err := s.Load(ctx, storage.KeyDebts)
	require.NoError(t, err)
	assert.Equal(t, blob, string(got))
}

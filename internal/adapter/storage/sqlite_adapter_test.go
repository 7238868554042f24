package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/restaurant/internal/core/domain"
)

func TestSQLiteEventStore_Contract(t *testing.T) {
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()

	runEventStoreContract(t, store)
}

func TestSQLiteEventStore_Survives_Reopen(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	store, err := OpenSQLite(ctx, path)
	req.NoError(err)
	req.NoError(store.Append(ctx, record("order-1", 1)))
	req.NoError(store.Close())

	reopened, err := OpenSQLite(ctx, path)
	req.NoError(err)
	defer reopened.Close()

	records, err := reopened.Load(ctx, "order-1", 0, 10)
	req.NoError(err)
	req.Len(records, 1)
	req.ErrorIs(reopened.Append(ctx, record("order-1", 1)), domain.ErrVersionConflict)
}

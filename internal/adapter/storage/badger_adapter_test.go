package storage

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBadgerEventStore_Contract(t *testing.T) {
	store, err := OpenBadger("", slog.Default())
	require.NoError(t, err)
	defer store.Close()

	runEventStoreContract(t, store)
}

func TestBadgerEventStore_On_Disk(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenBadger(dir, slog.Default())
	req.NoError(err)
	for seq := uint64(1); seq <= 3; seq++ {
		req.NoError(store.Append(ctx, record("table-1", seq)))
	}
	req.NoError(store.Close())

	reopened, err := OpenBadger(dir, slog.Default())
	req.NoError(err)
	defer reopened.Close()

	records, err := reopened.Load(ctx, "table-1", 1, 0)
	req.NoError(err)
	req.Len(records, 2)
	req.Equal(uint64(2), records[0].Seq)
	req.NoError(reopened.Append(ctx, record("table-1", 4)))
}

package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/port"
)

func record(id string, seq uint64) domain.EventRecord {
	return domain.EventRecord{
		AggregateID: id,
		Seq:         seq,
		Tag:         "order.products_added",
		Payload:     fmt.Appendf(nil, `{"n":%d}`, seq),
		RecordedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

// runEventStoreContract checks the behaviour every event log adapter shares.
func runEventStoreContract(t *testing.T, store port.EventStore) {
	t.Run("append_and_load_in_order", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		id := uuid.NewString()

		for seq := uint64(1); seq <= 5; seq++ {
			req.NoError(store.Append(ctx, record(id, seq)))
		}

		records, err := store.Load(ctx, id, 0, 100)
		req.NoError(err)
		req.Len(records, 5)
		for i, rec := range records {
			req.Equal(uint64(i+1), rec.Seq)
			req.Equal(id, rec.AggregateID)
			req.Equal(fmt.Sprintf(`{"n":%d}`, i+1), string(rec.Payload))
		}
	})

	t.Run("load_pages_after_sequence", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		id := uuid.NewString()
		for seq := uint64(1); seq <= 7; seq++ {
			req.NoError(store.Append(ctx, record(id, seq)))
		}

		page, err := store.Load(ctx, id, 3, 2)
		req.NoError(err)
		req.Len(page, 2)
		req.Equal(uint64(4), page[0].Seq)
		req.Equal(uint64(5), page[1].Seq)

		rest, err := store.Load(ctx, id, 7, 10)
		req.NoError(err)
		req.Empty(rest)
	})

	t.Run("rejects_duplicate_and_gap", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		id := uuid.NewString()
		req.NoError(store.Append(ctx, record(id, 1)))

		req.ErrorIs(store.Append(ctx, record(id, 1)), domain.ErrVersionConflict)
		req.ErrorIs(store.Append(ctx, record(id, 3)), domain.ErrVersionConflict)

		records, err := store.Load(ctx, id, 0, 10)
		req.NoError(err)
		req.Len(records, 1)
	})

	t.Run("logs_are_isolated_per_aggregate", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		a, b := uuid.NewString(), uuid.NewString()
		req.NoError(store.Append(ctx, record(a, 1)))
		req.NoError(store.Append(ctx, record(b, 1)))
		req.NoError(store.Append(ctx, record(a, 2)))

		records, err := store.Load(ctx, b, 0, 10)
		req.NoError(err)
		req.Len(records, 1)

		empty, err := store.Load(ctx, uuid.NewString(), 0, 10)
		req.NoError(err)
		req.Empty(empty)
	})

	t.Run("concurrent_appends_of_same_seq_have_one_winner", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		id := uuid.NewString()

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := store.Append(ctx, record(id, 1)); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		req.Equal(int32(1), wins.Load())
		records, err := store.Load(ctx, id, 0, 10)
		req.NoError(err)
		req.Len(records, 1)
	})
}

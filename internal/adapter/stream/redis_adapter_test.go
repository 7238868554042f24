package stream

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/restaurant/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecord(id string, seq uint64) domain.EventRecord {
	return domain.EventRecord{
		AggregateID: id,
		Seq:         seq,
		Tag:         "order.created",
		Payload:     []byte(`{"id":"x"}`),
		RecordedAt:  time.Unix(0, int64(seq)).UTC(),
	}
}

func TestRedisAdapter_PublishSubscribe(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	adapter := NewRedisAdapter(client, discardLogger())
	id := uuid.NewString()
	defer client.Del(context.Background(), publishedKeyPrefix+id)

	records, unsubscribe, err := adapter.Subscribe(ctx, id)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, adapter.Publish(ctx, testRecord(id, 1)))
	require.NoError(t, adapter.Publish(ctx, testRecord(id, 2)))

	for want := uint64(1); want <= 2; want++ {
		select {
		case rec := <-records:
			require.Equal(t, id, rec.AggregateID)
			require.Equal(t, want, rec.Seq)
			require.Equal(t, "order.created", rec.Tag)
			require.JSONEq(t, `{"id":"x"}`, string(rec.Payload))
		case <-ctx.Done():
			t.Fatalf("timed out waiting for seq %d", want)
		}
	}
}

func TestRedisAdapter_RepublishIsSkipped(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	adapter := NewRedisAdapter(client, discardLogger())
	id := uuid.NewString()
	defer client.Del(context.Background(), publishedKeyPrefix+id)

	records, unsubscribe, err := adapter.Subscribe(ctx, id)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, adapter.Publish(ctx, testRecord(id, 1)))
	require.NoError(t, adapter.Publish(ctx, testRecord(id, 1)))
	require.NoError(t, adapter.Publish(ctx, testRecord(id, 2)))

	var seqs []uint64
	for len(seqs) < 2 {
		select {
		case rec := <-records:
			seqs = append(seqs, rec.Seq)
		case <-ctx.Done():
			t.Fatalf("timed out, got %v", seqs)
		}
	}
	require.Equal(t, []uint64{1, 2}, seqs)

	last, err := client.Get(ctx, publishedKeyPrefix+id).Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(2), last)
}

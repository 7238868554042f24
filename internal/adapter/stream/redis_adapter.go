package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/restaurant/internal/core/domain"
)

const publishedKeyPrefix = "restaurant:published:"

// publishScript publishes a record only if its sequence is past the last one
// published for the aggregate, so retried publishes are not seen twice.
var publishScript = redis.NewScript(`
local last = tonumber(redis.call('GET', KEYS[2]) or '0')
local seq = tonumber(ARGV[2])
if seq <= last then
	return 0
end

redis.call('SET', KEYS[2], seq)
redis.call('PUBLISH', KEYS[1], ARGV[1])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisAdapter(client *redis.Client, log *slog.Logger) *RedisAdapter {
	return &RedisAdapter{client: client, log: log}
}

func (r *RedisAdapter) Publish(ctx context.Context, rec domain.EventRecord) error {
	data, err := json.Marshal(toMessage(rec))
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	keys := []string{Channel(rec.AggregateID), publishedKeyPrefix + rec.AggregateID}
	published, err := publishScript.Run(ctx, r.client, keys, data, rec.Seq).Int()
	if err != nil {
		return fmt.Errorf("redis publish %s: %w", rec.AggregateID, err)
	}
	if published == 0 {
		r.log.Debug("Skipped already published event", "id", rec.AggregateID, "seq", rec.Seq)
	}
	return nil
}

func (r *RedisAdapter) Subscribe(ctx context.Context, aggregateID string) (<-chan domain.EventRecord, func(), error) {
	sub := r.client.Subscribe(ctx, Channel(aggregateID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis subscribe %s: %w", aggregateID, err)
	}

	out := make(chan domain.EventRecord)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var m message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				r.log.Warn("Dropping undecodable message", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case out <- m.record():
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		if err := sub.Close(); err != nil {
			r.log.Warn("Closing subscription failed", "id", aggregateID, "error", err)
		}
	}
	return out, cancel, nil
}

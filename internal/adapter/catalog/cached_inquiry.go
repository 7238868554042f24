package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/port"
)

const productKeyPrefix = "restaurant:product:"

// CachedInquiry is a read-through Redis cache in front of another inquiry.
// Only found products are cached; a cache outage falls through to next.
type CachedInquiry struct {
	client *redis.Client
	next   port.ProductInquiry
	ttl    time.Duration
	log    *slog.Logger
}

func NewCachedInquiry(client *redis.Client, next port.ProductInquiry, ttl time.Duration, log *slog.Logger) *CachedInquiry {
	return &CachedInquiry{client: client, next: next, ttl: ttl, log: log}
}

func (c *CachedInquiry) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	key := productKeyPrefix + id.String()

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p domain.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.log.WarnContext(ctx, "Discarding undecodable cached product", "id", id.String())
	case errors.Is(err, redis.Nil):
	default:
		c.log.WarnContext(ctx, "Product cache read failed", "id", id.String(), "error", err)
	}

	product, err := c.next.GetProduct(ctx, id)
	if err != nil || product == nil {
		return product, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "Product cache write failed", "id", id.String(), "error", err)
		}
	}
	return product, nil
}

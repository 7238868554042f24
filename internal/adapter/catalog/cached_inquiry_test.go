package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/mocks"
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

func TestCachedInquiry_ReadsThrough(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	product := domain.Product{ID: domain.NewProductID(), Name: "Focaccia", PriceCents: 450}
	defer client.Del(ctx, productKeyPrefix+product.ID.String())

	ctrl := gomock.NewController(t)
	next := mocks.NewMockProductInquiry(ctrl)
	next.EXPECT().GetProduct(gomock.Any(), product.ID).Return(&product, nil).Times(1)

	cache := NewCachedInquiry(client, next, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for range 3 {
		got, err := cache.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		require.Equal(t, &product, got)
	}

	ttl, err := client.TTL(ctx, productKeyPrefix+product.ID.String()).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}

func TestCachedInquiry_MissingIsNotCached(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	id := domain.NewProductID()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockProductInquiry(ctrl)
	next.EXPECT().GetProduct(gomock.Any(), id).Return(nil, nil).Times(2)

	cache := NewCachedInquiry(client, next, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for range 2 {
		got, err := cache.GetProduct(ctx, id)
		require.NoError(t, err)
		require.Nil(t, got)
	}
	require.Zero(t, client.Exists(ctx, productKeyPrefix+id.String()).Val())
}

package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStatusCache(t *testing.T) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		t.Skip("REDIS_URL not set, skipping redis tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	cache := NewRedisStatusCache(client, time.Minute)
	cache.Prefix = "test:" + uuid.NewString() + ":"

	_, ok := cache.Get(ctx, "p1")
	assert.False(t, ok)

	expires := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	cache.Set(ctx, "p1", &ChargeStatus{Status: "PENDING", ExpiresAt: &expires})
	got, ok := cache.Get(ctx, "p1")
	require.True(t, ok)
	assert.Equal(t, "PENDING", got.Status)
	assert.True(t, got.ExpiresAt.Equal(expires))

	cache.Set(ctx, "p2", &ChargeStatus{Status: GatewayStatusPaid})
	_, ok = cache.Get(ctx, "p2")
	assert.False(t, ok)
}

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCache_PutGet(t *testing.T) {
	_, client := setupTestRedis(t)
	cache := NewCache(client, time.Hour, true)
	ctx := context.Background()

	got, err := cache.Get(ctx, "tenant-a", "sensor42", "serial")
	require.NoError(t, err)
	assert.Equal(t, "", got, "miss before put")

	require.NoError(t, cache.Put(ctx, "tenant-a", "sensor42", "serial", "dev-1"))

	got, err = cache.Get(ctx, "tenant-a", "sensor42", "serial")
	require.NoError(t, err)
	assert.Equal(t, "dev-1", got)
}

func TestCache_TenantIsolation(t *testing.T) {
	_, client := setupTestRedis(t)
	cache := NewCache(client, time.Hour, true)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tenant-a", "sensor42", "serial", "dev-1"))

	got, err := cache.Get(ctx, "tenant-b", "sensor42", "serial")
	require.NoError(t, err)
	assert.Equal(t, "", got, "tenant-b must not see tenant-a's mapping")
}

func TestCache_TTLExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCache(client, time.Minute, true)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "tenant-a", "sensor42", "serial", "dev-1"))

	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "tenant-a", "sensor42", "serial")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestCache_Disabled(t *testing.T) {
	tests := []struct {
		name    string
		client  *redis.Client
		enabled bool
	}{
		{name: "disabled flag", client: &redis.Client{}, enabled: false},
		{name: "nil client", client: nil, enabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewCache(tt.client, time.Hour, tt.enabled)
			assert.False(t, cache.IsEnabled())

			// Both operations are no-ops without error
			require.NoError(t, cache.Put(context.Background(), "t", "e", "serial", "d"))
			got, err := cache.Get(context.Background(), "t", "e", "serial")
			require.NoError(t, err)
			assert.Equal(t, "", got)
		})
	}
}

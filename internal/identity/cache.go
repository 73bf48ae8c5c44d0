package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache fronts external-identity lookups with Redis. Only positive
// mappings are cached: a mapping is created once and never mutated, so
// a hit can be trusted for its TTL, while a miss always falls through
// to the registry.
type Cache struct {
	redis   *redis.Client
	ttl     time.Duration
	enabled bool
}

// NewCache creates an identity cache. Pass enabled=false (or a nil
// client) to run every lookup against the registry.
func NewCache(client *redis.Client, ttl time.Duration, enabled bool) *Cache {
	return &Cache{
		redis:   client,
		ttl:     ttl,
		enabled: enabled,
	}
}

// IsEnabled returns whether the cache is active.
func (c *Cache) IsEnabled() bool {
	return c.enabled && c.redis != nil
}

// Get returns the cached device ID for an external identity, or ""
// when absent. Errors are reported so callers can log them, but a
// caller should treat any error as a miss.
func (c *Cache) Get(ctx context.Context, tenantID, externalID, idType string) (string, error) {
	if !c.IsEnabled() {
		return "", nil
	}

	deviceID, err := c.redis.Get(ctx, c.key(tenantID, externalID, idType)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("identity cache get: %w", err)
	}
	return deviceID, nil
}

// Put records a resolved mapping. Best-effort; an error never blocks
// the resolution path.
func (c *Cache) Put(ctx context.Context, tenantID, externalID, idType, deviceID string) error {
	if !c.IsEnabled() {
		return nil
	}

	if err := c.redis.Set(ctx, c.key(tenantID, externalID, idType), deviceID, c.ttl).Err(); err != nil {
		return fmt.Errorf("identity cache put: %w", err)
	}
	return nil
}

func (c *Cache) key(tenantID, externalID, idType string) string {
	return fmt.Sprintf("identity:%s:%s:%s", tenantID, idType, externalID)
}

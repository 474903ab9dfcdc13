package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when a caller has no better expiry
const DefaultTTL = 10 * time.Minute

// Cache stores JSON values under "<namespace>:cache:<key>"
type Cache struct {
	client    *Client
	namespace string
}

// NewCache creates a cache whose keys live under namespace
func NewCache(client *Client, namespace string) *Cache {
	return &Cache{client: client, namespace: namespace}
}

// HeatmapKey identifies a memoized grid by user, year and record fingerprint
func HeatmapKey(userID string, year int, fingerprint string) string {
	return fmt.Sprintf("heatmap:%s:%d:%s", userID, year, fingerprint)
}

// SessionKey identifies a stored session
func SessionKey(token string) string {
	return "session:" + token
}

func (c *Cache) fullKey(key string) string {
	return c.namespace + ":cache:" + key
}

// Get decodes the value at key into dest. A miss, or a disabled client,
// reports found=false without error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	raw, err := c.client.rdb.Get(ctx, c.fullKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set encodes value and stores it for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.put(ctx, key, raw, ttl)
}

func (c *Cache) put(ctx context.Context, key string, raw []byte, ttl time.Duration) error {
	if err := c.client.rdb.Set(ctx, c.fullKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	if err := c.client.rdb.Del(ctx, c.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// GetOrSet fills dest from the cache, or from load on a miss and stores the
// loaded value. Cache errors never fail the call, only load errors do.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() (interface{}, error)) error {
	if found, err := c.Get(ctx, key, dest); err == nil && found {
		return nil
	}

	value, err := load()
	if err != nil {
		return err
	}

	// dest is filled through JSON so hits and misses decode the same way
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if c.client.Enabled() {
		_ = c.put(ctx, key, raw, ttl)
	}
	return json.Unmarshal(raw, dest)
}

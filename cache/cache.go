// Package cache is the lookaside cache used for derived catalog and cart values.
//
// Values are consulted before storage, populated on a miss with a TTL, and
// deleted explicitly when the data they were derived from changes. The TTL is
// only a backstop for writes that bypass the invalidation paths.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry TTLs.
// Implementations give no atomicity across keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

// GetJSON decodes a cached JSON value into dest. A miss returns false.
func GetJSON(ctx context.Context, c Cache, key string, dest any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A value we can't decode is as good as absent.
		_ = c.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// Remember returns the cached value for key, or calls load, caches its result
// for ttl and returns it. Concurrent misses may both load; last writer wins.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var value T
	hit, err := GetJSON(ctx, c, key, &value)
	if err != nil {
		return value, fmt.Errorf("read cache %s: %w", key, err)
	}
	if hit {
		return value, nil
	}

	value, err = load(ctx)
	if err != nil {
		return value, err
	}

	if err := SetJSON(ctx, c, key, value, ttl); err != nil {
		return value, fmt.Errorf("write cache %s: %w", key, err)
	}
	return value, nil
}

package initializers

import (
	"context"
	"fmt"

	"github.com/Kariqs/eshop-api/cache"
)

// NewCache builds the configured cache backend. The returned func releases it.
func NewCache(ctx context.Context, cfg Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case "memory":
		return cache.NewMemory(), func() {}, nil
	case "ristretto":
		local, err := cache.NewLocal(cfg.CacheMaxBytes)
		if err != nil {
			return nil, nil, err
		}
		return local, local.Close, nil
	case "redis":
		r, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CachePrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.CacheBackend)
	}
}

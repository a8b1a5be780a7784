// Package cache provides the short-lived read caches of the directory. Entries
// expire only by TTL; nothing invalidates them on write.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache stores opaque values under a key for a bounded time.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Remember returns the cached value for key, or computes it with fn and stores
// it for ttl. A failing cache is treated as a miss; errors from fn are returned
// and never cached. A nil cache or a non-positive ttl disables caching.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if c == nil || ttl <= 0 {
		return fn()
	}

	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	}

	v, err := fn()
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		_ = c.Set(ctx, key, data, ttl)
	}
	return v, nil
}

// Key builds a cache key from a prefix and the exact argument values. Parts
// are JSON encoded, so no separator inside a part can make two keys collide.
func Key(prefix string, parts ...string) string {
	if parts == nil {
		parts = []string{}
	}
	data, _ := json.Marshal(parts)
	return prefix + ":" + string(data)
}

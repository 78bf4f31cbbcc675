// Package rescache caches rendered JSON responses, in Redis when an address
// is configured and in process memory otherwise.
package rescache

import (
	"context"
	"time"
)

// Cache stores string values by key with an optional time to live.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Open returns a Redis cache for addr, or an in-memory cache when addr is
// empty. The Redis server is pinged before returning.
func Open(ctx context.Context, addr string) (Cache, error) {
	if addr == "" {
		return NewMemory(), nil
	}
	r := NewRedis(addr)
	if err := r.Ping(ctx); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

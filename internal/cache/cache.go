package cache

import (
	"context"
	"time"
)

// Cache stores JSON-serialisable values by key with a per-entry TTL.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

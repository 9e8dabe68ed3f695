package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a process-local Cache used when Redis is not configured.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	items   map[string]entry[V]
	nowFunc func() time.Time
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{
		items:   make(map[string]entry[V]),
		nowFunc: time.Now,
	}
}

func (c *TTLCache[V]) Get(_ context.Context, key string) (V, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false, nil
	}
	if !item.expiresAt.IsZero() && !c.nowFunc().Before(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return zero, false, nil
	}
	return item.value, true, nil
}

func (c *TTLCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	item := entry[V]{value: value}
	if ttl > 0 {
		item.expiresAt = c.nowFunc().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *TTLCache[V]) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.items, key)
	}
	c.mu.Unlock()
	return nil
}

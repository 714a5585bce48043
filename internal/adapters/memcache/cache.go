// Package memcache is an in-process TTL cache: a key -> {payload, expiry}
// map with eviction on read and manual invalidation. There is no size bound
// and no eviction policy beyond TTL; entries nobody re-reads linger until
// overwritten or deleted.
package memcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tablebook/internal/adapters/observability"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

type Cache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

func New() *Cache {
	return &Cache{m: make(map[string]entry), now: time.Now}
}

// Get reports whether key held a live value and, if so, unmarshals it into
// dst. Expired entries are evicted here rather than by a background sweep.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// re-check under the write lock; a Set may have raced the eviction
		if cur, ok := c.m[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.payload, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("memory", "set")
	c.mu.Lock()
	c.m[key] = entry{payload: b, expiresAt: c.now().Add(time.Duration(ttlSec) * time.Second)}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("memory", "del")
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

// Len is a test hook; it counts live and expired entries alike.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

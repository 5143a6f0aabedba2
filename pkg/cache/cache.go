package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL matches the catalog refresh interval.
const DefaultTTL = time.Hour

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a mutex-guarded in-process store with per-key expiry. Entries
// expire TTL after their last Set; expiry is checked on read, there is no
// background sweeper. Do collapses concurrent misses for the same key
// into a single fill call.
type Cache[V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	data  map[string]entry[V]
	group singleflight.Group

	// now is swapped in tests to step the clock.
	now func() time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		ttl:  ttl,
		data: make(map[string]entry[V]),
		now:  time.Now,
	}
}

// Get returns the value stored at key, reporting false when the key was
// never set or its entry is older than the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ent, ok := c.data[key]
	if !ok || c.now().Sub(ent.storedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return ent.value, true
}

// Set stores value at key, overwriting any prior entry and resetting its
// expiry clock.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry[V]{value: value, storedAt: c.now()}
}

// Delete drops the entry at key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Do returns the cached value for key or computes it with fill. Callers
// racing on the same expired key share one fill invocation; its result is
// stored and handed to all of them.
func (c *Cache[V]) Do(ctx context.Context, key string, fill func(ctx context.Context) (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: another flight may have filled the key between the
		// miss above and acquiring the flight.
		if value, ok := c.Get(key); ok {
			return value, nil
		}
		value, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

package cache

import (
	"sync"
	"time"

	"github.com/i474232898/us-city-weather/internal/weather"
)

type entry struct {
	resp     weather.Response
	storedAt time.Time
}

// MemoryCache is a concurrency-safe, bounded response cache keyed by exact
// coordinates. Entries older than the TTL read as misses.
type MemoryCache struct {
	mu sync.RWMutex

	data  map[weather.Coordinates]*entry
	order []weather.Coordinates // oldest first

	// retention configuration
	maxEntries int           // max number of cached responses
	ttl        time.Duration // max age of a cached response

	now func() time.Time
}

// NewMemoryCache creates a MemoryCache with optional limits.
// If maxEntries or ttl is <= 0, that limit is treated as unlimited.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		data:       make(map[weather.Coordinates]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the cached response for at if present and not expired.
func (c *MemoryCache) Get(at weather.Coordinates) (weather.Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[at]
	if !ok {
		return weather.Response{}, false
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl {
		return weather.Response{}, false
	}
	return e.resp, true
}

// Put stores resp for at and enforces retention.
func (c *MemoryCache) Put(at weather.Coordinates, resp weather.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[at]; ok {
		c.removeFromOrder(at)
	}
	c.data[at] = &entry{resp: resp, storedAt: c.now()}
	c.order = append(c.order, at)

	// Enforce retention by count.
	for c.maxEntries > 0 && len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.data, oldest)
	}
}

// Delete removes the entry for at, if any.
func (c *MemoryCache) Delete(at weather.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[at]; !ok {
		return
	}
	delete(c.data, at)
	c.removeFromOrder(at)
}

// Purge drops expired entries and returns how many were removed.
func (c *MemoryCache) Purge() int {
	if c.ttl <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl)
	kept := c.order[:0]
	removed := 0
	for _, at := range c.order {
		if c.data[at].storedAt.After(cutoff) {
			kept = append(kept, at)
			continue
		}
		delete(c.data, at)
		removed++
	}
	c.order = kept
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache) removeFromOrder(at weather.Coordinates) {
	for i, k := range c.order {
		if k == at {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

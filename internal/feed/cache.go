package feed

import (
	"sync"
	"time"

	"tradebot/internal/domain"
)

// memoryCache is the fast first layer of the cascade: a symbol-keyed map
// with an explicit staleness policy. A TTL of zero or less means entries
// never expire, which reproduces the behavior of a cache with no freshness
// check at all.
type memoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	bar      domain.Bar
	storedAt time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// get returns the cached bar for the symbol if present and fresh.
func (c *memoryCache) get(symbol string) (*domain.Bar, bool) {
	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		return nil, false
	}
	bar := entry.bar
	return &bar, true
}

// set stores a bar for the symbol.
func (c *memoryCache) set(bar domain.Bar) {
	c.mu.Lock()
	c.entries[bar.Symbol] = cacheEntry{bar: bar, storedAt: c.now()}
	c.mu.Unlock()
}

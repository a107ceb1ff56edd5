package websearch

import (
	"sync"
	"time"

	"github.com/ellie-edu/ellie/internal/domain"
)

// ttlCache is a small in-memory TTL cache keyed by query+k. Entries are
// evicted lazily on read.
type ttlCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	store map[string]cacheEntry
}

type cacheEntry struct {
	expiresAt time.Time
	results   []domain.WebSnippet
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:   ttl,
		now:   time.Now,
		store: make(map[string]cacheEntry),
	}
}

func (c *ttlCache) get(key string) ([]domain.WebSnippet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.store[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.store, key)
		return nil, false
	}
	return entry.results, true
}

func (c *ttlCache) set(key string, results []domain.WebSnippet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheEntry{
		expiresAt: c.now().Add(c.ttl),
		results:   results,
	}
}

package probe

import (
	"sync"
	"time"
)

// cacheEntry is one remembered probe outcome. Entries are idempotent network
// facts, so last-writer-wins on concurrent stores.
type cacheEntry struct {
	outcome  fetchResult
	storedAt time.Time
}

// Cache remembers probe outcomes per (domain, scheme) with a TTL. It is
// caller-owned: the pipeline creates one per run (or shares one across
// nearby runs) and passes it into the Prober, so concurrent runs never
// cross-talk through hidden globals.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a Cache with the given TTL. A zero or negative TTL
// disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func cacheKey(domain, scheme string) string {
	return scheme + "://" + domain
}

// Get returns the remembered outcome for (domain, scheme). Entries older
// than the TTL are treated as absent.
func (c *Cache) Get(domain, scheme string) (fetchResult, bool) {
	if c == nil || c.ttl <= 0 {
		return fetchResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey(domain, scheme)]
	if !ok {
		return fetchResult{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, cacheKey(domain, scheme))
		return fetchResult{}, false
	}
	return entry.outcome, true
}

// Put stores a probe outcome.
func (c *Cache) Put(domain, scheme string, outcome fetchResult) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(domain, scheme)] = cacheEntry{outcome: outcome, storedAt: c.now()}
}

// Len reports the number of live entries, for observability.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

package matcher

import "sync"

// memoEntry caches the outcome of one field lookup, including misses so a
// repeated miss does not rerun the cascade.
type memoEntry struct {
	value interface{}
	found bool
}

// memoCache is a bounded map with insertion-order eviction: once full, the
// oldest entry is dropped before a new one is inserted. It is deliberately
// not an LRU — correctness never depends on hits, so the cheapest policy
// wins. A zero capacity disables caching.
type memoCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]memoEntry
	order    []string
}

func newMemoCache(capacity int) *memoCache {
	c := &memoCache{capacity: capacity}
	if capacity > 0 {
		c.entries = make(map[string]memoEntry, capacity)
		c.order = make([]string, 0, capacity)
	}
	return c
}

func (c *memoCache) get(key string) (memoEntry, bool) {
	if c.capacity <= 0 {
		return memoEntry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *memoCache) put(key string, e memoEntry) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = e
		return
	}
	for len(c.entries) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = e
	c.order = append(c.order, key)
}

func (c *memoCache) len() int {
	if c.capacity <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Package cache holds recently fetched pages so repeat requests for
// the same URL within the TTL skip the browser entirely.
package cache

import (
	"sync"
	"time"

	"github.com/use-agent/browserfetch/models"
)

// Default limits for the page cache.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 20
	DefaultMaxBytes   = 50 * 1024 * 1024 // cumulative HTML bytes
)

// entry holds a cached page with its insertion timestamp.
type entry struct {
	result    *models.PageResult
	createdAt time.Time
}

// Cache is an in-memory page cache bounded three ways: per-entry TTL,
// entry count, and cumulative HTML byte size. Eviction removes the
// oldest entries by insertion order until both size bounds hold.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	store      map[string]*entry
	order      []string // insertion order, oldest first
	bytes      int
	ttl        time.Duration
	maxEntries int
	maxBytes   int
}

// New creates a Cache with the default limits.
func New() *Cache {
	return NewWithLimits(DefaultTTL, DefaultMaxEntries, DefaultMaxBytes)
}

// NewWithLimits creates a Cache with explicit bounds.
func NewWithLimits(ttl time.Duration, maxEntries, maxBytes int) *Cache {
	return &Cache{
		store:      make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
	}
}

// Get retrieves the cached page for url if it exists and is younger
// than the TTL. An expired entry is removed on lookup and reported as
// a miss.
func (c *Cache) Get(url string) (*models.PageResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[url]
	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) >= c.ttl {
		c.remove(url)
		return nil, false
	}
	return e.result, true
}

// Put stores a page under url, then evicts oldest-first until both the
// entry-count and byte bounds are satisfied. Overwriting an existing
// URL moves it to the newest position.
func (c *Cache) Put(url string, result *models.PageResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.store[url]; ok {
		c.remove(url)
	}
	c.store[url] = &entry{result: result, createdAt: time.Now()}
	c.order = append(c.order, url)
	c.bytes += result.SizeBytes()

	for len(c.order) > c.maxEntries || c.bytes > c.maxBytes {
		if len(c.order) == 0 {
			break
		}
		c.remove(c.order[0])
	}
}

// Stats reports the current entry count and cumulative HTML bytes.
func (c *Cache) Stats() (entries, bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order), c.bytes
}

// remove deletes url from the store and the insertion-order list.
// Caller must hold c.mu.
func (c *Cache) remove(url string) {
	e, ok := c.store[url]
	if !ok {
		return
	}
	c.bytes -= e.result.SizeBytes()
	delete(c.store, url)
	for i, k := range c.order {
		if k == url {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

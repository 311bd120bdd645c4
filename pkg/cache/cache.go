package cache

import (
	"sync"
	"time"
)

// Cache is a simple in-memory TTL store safe for concurrent use. It backs
// short-lived process state such as revoked session ids.
type Cache struct {
	mu    sync.RWMutex
	items map[string]item
}

type item struct {
	v   any
	exp int64 // unix seconds; 0 = no expiry
}

var (
	defaultCache *Cache
	once         sync.Once
)

// Default returns a process-wide cache instance with a background janitor.
func Default() *Cache {
	once.Do(func() {
		defaultCache = New()
		go defaultCache.janitor(60 * time.Second)
	})
	return defaultCache
}

// New returns an empty cache without a janitor; expired items are dropped
// lazily on Get.
func New() *Cache {
	return &Cache{items: make(map[string]item)}
}

// Get returns the value and whether it exists and has not expired.
func (c *Cache) Get(key string) (any, bool) {
	now := time.Now().Unix()
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if it.exp != 0 && it.exp < now {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return it.v, true
}

// Set stores a value with TTL. ttl<=0 means no expiry.
func (c *Cache) Set(key string, v any, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).Unix()
	}
	c.mu.Lock()
	c.items[key] = item{v: v, exp: exp}
	c.mu.Unlock()
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len reports the number of stored items, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for range t.C {
		now := time.Now().Unix()
		c.mu.Lock()
		for k, it := range c.items {
			if it.exp != 0 && it.exp < now {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}

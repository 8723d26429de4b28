package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe in-memory TTL cache. Each data class owns its
// own instance with its own default TTL and sweep interval; instances are
// constructed in main and injected, never shared between components.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration

	now func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Cache and starts a background janitor that removes expired
// entries every sweepInterval. Call Stop to end the janitor.
func New(defaultTTL, sweepInterval time.Duration) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	go c.janitor(sweepInterval)
	return c
}

// Get returns the stored value for key. An expired entry is treated as
// absent and removed on the spot.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Increment adds one to an integer counter under key and returns the new
// count, creating the entry with the default TTL when absent or expired.
// The existing expiry is kept on increment, so a fixed window never slides.
// Check and increment happen under one lock; concurrent callers each get a
// distinct count.
func (c *Cache) Increment(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		c.entries[key] = entry{value: 1, expiresAt: c.now().Add(c.defaultTTL)}
		return 1
	}
	n, _ := e.value.(int)
	n++
	e.value = n
	c.entries[key] = e
	return n
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	now := c.now()
	for _, e := range c.entries {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n
}

// Stop ends the janitor goroutine. The cache remains usable afterwards;
// expired entries are then only removed lazily on Get.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

func (c *Cache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

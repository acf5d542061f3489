package cache

import (
	"sync"
	"time"
)

// ============================================================================
// CACHE - THREAD-SAFE IN-MEMORY KEY/VALUE STORE
// ============================================================================
// Components own their cache instances and receive them by injection: the
// transit graph keeps stop coordinates, the planner keeps computed route
// options, the fare model keeps tariff tables. A TTL of zero means the entry
// lives for the process lifetime, which is the planner's default policy
// (entries are never invalidated; there is no eviction).
//
// Usage:
//   c := cache.New(0, 10*time.Minute)
//   c.Set("stop:CMBT", coords)
//   if v, found := c.Get("stop:CMBT"); found { ... }

// Item is a cached value with an expiration timestamp.
type Item struct {
	Value      interface{}
	Expiration int64 // UnixNano; 0 = never expires
}

// Cache is a mutex-guarded key/value store with optional TTL.
type Cache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	stopCleanup       chan bool
}

// New creates a cache. defaultExpiration of zero keeps entries for the
// process lifetime. cleanupInterval of zero disables the sweeper, which is
// the right setting for lifetime caches.
func New(defaultExpiration, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:             make(map[string]Item),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		stopCleanup:       make(chan bool),
	}

	if cleanupInterval > 0 {
		go c.startCleanupTimer()
	}

	return c
}

// Set stores a value using the default expiration.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultExpiration)
}

// SetWithTTL stores a value with an explicit expiration duration.
func (c *Cache) SetWithTTL(key string, value interface{}, duration time.Duration) {
	var expiration int64

	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
	c.mu.Unlock()
}

// Get returns (value, true) if the key exists and has not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}

	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		c.Delete(key)
		return nil, false
	}

	return item.Value, true
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with the given prefix and returns
// how many entries were dropped.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
			count++
		}
	}
	return count
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]Item)
	c.mu.Unlock()
}

// Count returns the number of items, expired ones included.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats summarizes the cache contents.
type Stats struct {
	TotalItems   int
	ExpiredItems int
	ValidItems   int
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		TotalItems: len(c.items),
	}

	now := time.Now().UnixNano()
	for _, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			stats.ExpiredItems++
		} else {
			stats.ValidItems++
		}
	}

	return stats
}

func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Stop halts the background sweeper, if one is running.
func (c *Cache) Stop() {
	if c.cleanupInterval > 0 {
		c.stopCleanup <- true
	}
}

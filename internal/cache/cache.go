package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache keys constants
const (
	CacheKeyMovieList  = "movies:list:%s" // sorted/filtered list, keyed by query params
	CacheKeyMovieItem  = "movies:item:%s" // single movie, keyed by tmdbId
	CacheKeyListPrefix = "movies:list:"
	CacheKeyItemPrefix = "movies:item:"
)

// Cache TTL constants
const (
	TTLMovieList = 30 * time.Second
	TTLMovieItem = 30 * time.Second
)

// Cache is a wrapper around go-cache
type Cache struct {
	store *gocache.Cache
}

// New creates a new Cache instance
func New() *Cache {
	return &Cache{
		store: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Set stores a value in the cache with the specified TTL
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes all values from the cache
func (c *Cache) Clear() {
	c.store.Flush()
}

// DeletePattern removes all keys matching a pattern (prefix)
func (c *Cache) DeletePattern(pattern string) {
	items := c.store.Items()
	for key := range items {
		if len(key) >= len(pattern) && key[:len(pattern)] == pattern {
			c.store.Delete(key)
		}
	}
}

// GetOrSet retrieves a value from cache, or sets it if not found
func (c *Cache) GetOrSet(key string, ttl time.Duration, fn func() (any, error)) (any, error) {
	if val, found := c.Get(key); found {
		return val, nil
	}

	val, err := fn()
	if err != nil {
		return nil, err
	}

	c.Set(key, val, ttl)
	return val, nil
}

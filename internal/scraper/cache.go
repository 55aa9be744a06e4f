package scraper

import (
	"sync"
	"time"
)

// DefaultRedirectTTL is how long a resolved link is reused
const DefaultRedirectTTL = 24 * time.Hour

// RedirectCache maps requested links to their final URL with a TTL
type RedirectCache struct {
	mu       sync.Mutex
	targets  map[string]string    // requested URL → final URL
	cachedAt map[string]time.Time // requested URL → cache time
	ttl      time.Duration
	now      func() time.Time
}

// NewRedirectCache creates a cache whose entries expire after ttl
func NewRedirectCache(ttl time.Duration) *RedirectCache {
	if ttl <= 0 {
		ttl = DefaultRedirectTTL
	}
	return &RedirectCache{
		targets:  make(map[string]string),
		cachedAt: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the cached target for link if present and not expired
func (c *RedirectCache) Get(link string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, exists := c.targets[link]
	if !exists {
		return "", false
	}

	if c.now().Sub(c.cachedAt[link]) > c.ttl {
		delete(c.targets, link)
		delete(c.cachedAt, link)
		return "", false
	}

	return target, true
}

// Set stores the final URL for link
func (c *RedirectCache) Set(link, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.targets[link] = target
	c.cachedAt[link] = c.now()
}

// CleanExpired removes expired entries and returns how many were dropped
func (c *RedirectCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for link, cachedAt := range c.cachedAt {
		if now.Sub(cachedAt) > c.ttl {
			delete(c.targets, link)
			delete(c.cachedAt, link)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached entries
func (c *RedirectCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.targets)
}

package auth

import "sync"

// DefaultKeyCacheSize bounds the validation cache when no size is given.
const DefaultKeyCacheSize = 100

// KeyCache is an in-memory cache of API key validation results. It avoids
// repeated calls to the auth service for keys seen recently. The cache is
// per-process and never persisted.
//
// Only a key's first 20 characters are used as the cache key, so full key
// material is never retained.
type KeyCache struct {
	mu      sync.Mutex
	entries map[string]map[string]any
	order   []string
	maxSize int
}

// NewKeyCache creates a bounded key cache. Sizes below one fall back to
// DefaultKeyCacheSize.
func NewKeyCache(maxSize int) *KeyCache {
	if maxSize < 1 {
		maxSize = DefaultKeyCacheSize
	}
	return &KeyCache{
		entries: make(map[string]map[string]any),
		maxSize: maxSize,
	}
}

func cacheKey(apiKey string) string {
	if len(apiKey) < 20 {
		return apiKey
	}
	return apiKey[:20]
}

// Get returns the cached validation result for a key, or nil.
func (c *KeyCache) Get(apiKey string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[cacheKey(apiKey)]
}

// Set stores a validation result. When the cache is full, the oldest half of
// the entries is evicted before inserting.
func (c *KeyCache) Set(apiKey string, userInfo map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		evict := c.order[:c.maxSize/2]
		for _, k := range evict {
			delete(c.entries, k)
		}
		c.order = append([]string(nil), c.order[c.maxSize/2:]...)
	}

	key := cacheKey(apiKey)
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = userInfo
}

// Clear empties the cache.
func (c *KeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]map[string]any)
	c.order = nil
}

// Len returns the number of cached entries.
func (c *KeyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

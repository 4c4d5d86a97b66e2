package images

import "sync"

type cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*Bitmap
}

func newCache() *cache {
	return &cache{entries: map[cacheKey]*Bitmap{}}
}

// get reports a hit even for cached failures, which are stored as nil.
func (c *cache) get(key cacheKey) (*Bitmap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bmp, ok := c.entries[key]
	return bmp, ok
}

func (c *cache) put(key cacheKey, bmp *Bitmap) {
	c.mu.Lock()
	c.entries[key] = bmp
	c.mu.Unlock()
}

func (c *cache) reset() {
	c.mu.Lock()
	c.entries = map[cacheKey]*Bitmap{}
	c.mu.Unlock()
}

func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

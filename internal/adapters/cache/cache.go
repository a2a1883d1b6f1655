package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RistrettoCache backs the injected cache port. Entries carry explicit
// TTLs; there is no ambient/global access to it.
type RistrettoCache struct {
	cache *ristretto.Cache
}

func New(maxItems int64) (*RistrettoCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache failed: %w", err)
	}
	return &RistrettoCache{cache: c}, nil
}

func (c *RistrettoCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *RistrettoCache) Set(key string, value any, ttl time.Duration) {
	c.cache.SetWithTTL(key, value, 1, ttl)
}

func (c *RistrettoCache) Del(key string) {
	c.cache.Del(key)
}

// Wait flushes pending writes; used by tests.
func (c *RistrettoCache) Wait() { c.cache.Wait() }

func (c *RistrettoCache) Close() { c.cache.Close() }

package providers

import (
	"leetfresh/internal/structures"
	"time"
	"unsafe"

	"github.com/coocood/freecache"
)

// defaultResponseTTL applies when cache.ttl is unset. Keys carry the snapshot
// generation, so the TTL only bounds day-boundary drift of computed stats.
const defaultResponseTTL = time.Hour

// CacheProviderInterface caches encoded API responses. Invalidate drops every
// entry; it is called when a new snapshot generation is published so stale
// generations do not hold memory until they expire.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Invalidate()
}

type CacheProvider struct {
	cache *freecache.Cache
	ttl   int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Response cache disabled")
		return &noopCache{}
	}

	ttl := conf.Cache.TTL
	if ttl <= 0 {
		ttl = defaultResponseTTL
	}

	logger.Infof(TypeApp, "Response cache: %dMB, ttl %s", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache: freecache.NewCache(conf.Cache.Size * 1024 * 1024),
		ttl:   int(ttl / time.Second),
	}
}

// keyBytes aliases the key's bytes; freecache copies keys, never writes them.
func keyBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(keyBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set(keyBytes(key), value, c.ttl)
}

func (c *CacheProvider) Invalidate() {
	c.cache.Clear()
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Invalidate()                 {}

package providers

import "leetfresh/internal/structures"

// instrumentedCache counts response cache hits and misses.
type instrumentedCache struct {
	CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *instrumentedCache) Get(key string) ([]byte, bool) {
	val, ok := c.CacheProviderInterface.Get(key)
	if ok {
		c.metrics.IncCacheHits()
		return val, true
	}
	c.metrics.IncCacheMisses()
	return nil, false
}

// NewInstrumentedCacheProvider returns the response cache with hit/miss
// counting. A disabled cache is returned bare so it does not report a miss
// for every request.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &instrumentedCache{CacheProviderInterface: inner, metrics: metrics}
}

package utils

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/nci/gomemcache/memcache"
)

// DocCache caches fully rendered capability and description documents
// in memcached, keyed by the hash of the request URI. GetCapabilities
// and DescribeCoverage responses only vary with the request URI and
// the loaded config, so the cache is flushed on config reload by
// virtue of memcached expiry and never consulted for GetCoverage.
type DocCache struct {
	mc *memcache.Client
}

// NewDocCache connects lazily; a missing or unreachable memcached
// just turns every Get into a miss.
func NewDocCache(uri string) *DocCache {
	if len(uri) == 0 {
		return &DocCache{}
	}
	return &DocCache{mc: memcache.New(uri)}
}

func cacheKey(requestURI string) string {
	buff := md5.Sum([]byte(requestURI))
	return hex.EncodeToString(buff[:])
}

func (c *DocCache) Get(requestURI string) ([]byte, bool) {
	if c == nil || c.mc == nil {
		return nil, false
	}
	cached, err := c.mc.Get(cacheKey(requestURI))
	if err != nil {
		return nil, false
	}
	return cached.Value, true
}

func (c *DocCache) Put(requestURI string, doc []byte) {
	if c == nil || c.mc == nil {
		return
	}
	// don't care about errors; memcache may not necessarily retain this anyway
	c.mc.Set(&memcache.Item{Key: cacheKey(requestURI), Value: doc})
}

package sql

import (
	"fmt"
	"hash/crc64"

	lru "github.com/hashicorp/golang-lru"
)

var table = crc64.MakeTable(crc64.ISO)

// CacheKey returns a hash of the given value to be used as key in
// a cache.
func CacheKey(v interface{}) uint64 {
	return crc64.Checksum([]byte(fmt.Sprintf("%#v", v)), table)
}

// QueryCache is a bounded LRU cache of rewritten query text. Rewriting is a
// pure function of the query text and the registry contents, so results can
// be reused as long as the key includes the registry version.
type QueryCache struct {
	size  int
	cache *lru.Cache
}

// NewQueryCache returns an empty QueryCache holding at most size entries.
func NewQueryCache(size uint) *QueryCache {
	lru, _ := lru.New(int(size))
	return &QueryCache{int(size), lru}
}

// Put stores the given value under key.
func (c *QueryCache) Put(k uint64, v string) {
	c.cache.Add(k, v)
}

// Get retrieves the value stored under key, or ErrKeyNotFound.
func (c *QueryCache) Get(k uint64) (string, error) {
	v, ok := c.cache.Get(k)
	if !ok {
		return "", ErrKeyNotFound.New(k)
	}

	return v.(string), nil
}

// Free empties the cache.
func (c *QueryCache) Free() {
	c.cache, _ = lru.New(c.size)
}

// Len returns the number of cached entries.
func (c *QueryCache) Len() int {
	return c.cache.Len()
}

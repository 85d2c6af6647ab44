package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryCache(t *testing.T) {
	require := require.New(t)

	cache := NewQueryCache(2)
	key := CacheKey(cacheKeyFixture{1, "SELECT ID FROM accidents"})

	_, err := cache.Get(key)
	require.True(ErrKeyNotFound.Is(err))

	cache.Put(key, "SELECT ID FROM accidents_fact")
	v, err := cache.Get(key)
	require.NoError(err)
	require.Equal("SELECT ID FROM accidents_fact", v)
}

func TestQueryCacheEviction(t *testing.T) {
	require := require.New(t)

	cache := NewQueryCache(2)
	cache.Put(1, "a")
	cache.Put(2, "b")
	cache.Put(3, "c")

	require.Equal(2, cache.Len())
	_, err := cache.Get(1)
	require.True(ErrKeyNotFound.Is(err))
}

func TestCacheKeyDistinguishesVersions(t *testing.T) {
	require := require.New(t)

	a := CacheKey(cacheKeyFixture{1, "SELECT ID FROM accidents"})
	b := CacheKey(cacheKeyFixture{2, "SELECT ID FROM accidents"})
	require.NotEqual(a, b)
}

type cacheKeyFixture struct {
	Version uint64
	Query   string
}

package scan

import (
	"errors"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/jacques-n/parquet-mr/pkg/codec"
	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/dictionary"
)

type cacheKey struct {
	sum        uint64
	size       int
	typ        values.Type
	typeLength int
	count      int
}

type cacheValue struct {
	dict dictionary.Dictionary
	error
}

// DictionaryCache resolves dictionary pages, decoding each distinct page once
// while it stays cached. Pages are identified by the xxhash of their bytes
// together with their length, type and value count.
type DictionaryCache struct {
	cache *ttlcache.Cache[cacheKey, cacheValue]
	group singleflight.Group
}

var _ codec.Resolver = (*DictionaryCache)(nil)

// NewDictionaryCache creates a cache expiring entries ttl after their last
// use. Stop must be called to release the expiry goroutine.
func NewDictionaryCache(ttl time.Duration) *DictionaryCache {
	c := &DictionaryCache{
		cache: ttlcache.New(
			ttlcache.WithTTL[cacheKey, cacheValue](ttl),
		),
	}
	go c.cache.Start()
	return c
}

// Resolve returns the dictionary decoded from page.
func (c *DictionaryCache) Resolve(typ values.Type, typeLength, count int, page []byte) (dictionary.Dictionary, error) {
	key := cacheKey{
		sum:        xxhash.Sum64(page),
		size:       len(page),
		typ:        typ,
		typeLength: typeLength,
		count:      count,
	}

	loader := ttlcache.LoaderFunc[cacheKey, cacheValue](
		func(cache *ttlcache.Cache[cacheKey, cacheValue], key cacheKey) *ttlcache.Item[cacheKey, cacheValue] {
			dict, err := codec.ReadDictionary(typ, typeLength, count, page)
			return cache.Set(key, cacheValue{dict: dict, error: err}, ttlcache.DefaultTTL)
		},
	)
	v := c.cache.Get(key, ttlcache.WithLoader(ttlcache.NewSuppressedLoader(loader, &c.group)))
	if v == nil {
		return nil, errors.New("failed to resolve dictionary from cache")
	}
	return v.Value().dict, v.Value().error
}

// Len returns the number of cached dictionaries.
func (c *DictionaryCache) Len() int { return c.cache.Len() }

// Loads returns how many dictionaries have been added to the cache.
func (c *DictionaryCache) Loads() uint64 { return c.cache.Metrics().Insertions }

// Stop stops the expiry goroutine and drops every entry.
func (c *DictionaryCache) Stop() {
	c.cache.Stop()
	c.cache.DeleteAll()
}

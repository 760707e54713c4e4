package kv

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheSize bounds the read-through cache entry count.
const defaultCacheSize = 256

// CachedStore wraps a Store with an LRU read-through cache. Writes go
// through to the backend and update the cache; the backend stays the
// source of truth.
type CachedStore struct {
	backend Store
	cache   *lru.Cache[string, string]
}

// NewCached wraps backend with an LRU cache of the given size.
func NewCached(backend Store, size int) *CachedStore {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, _ := lru.New[string, string](size)
	return &CachedStore{backend: backend, cache: cache}
}

func (c *CachedStore) Get(ctx context.Context, key string) (string, bool) {
	if v, ok := c.cache.Get(key); ok {
		return v, true
	}
	v, ok := c.backend.Get(ctx, key)
	if ok {
		c.cache.Add(key, v)
	}
	return v, ok
}

func (c *CachedStore) Set(ctx context.Context, key, value string) error {
	if err := c.backend.Set(ctx, key, value); err != nil {
		return err
	}
	c.cache.Add(key, value)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.backend.Delete(ctx, key)
}

func (c *CachedStore) ListKeys(ctx context.Context) ([]string, error) {
	return c.backend.ListKeys(ctx)
}

func (c *CachedStore) DeleteMany(ctx context.Context, keys []string) error {
	for _, k := range keys {
		c.cache.Remove(k)
	}
	return c.backend.DeleteMany(ctx, keys)
}

func (c *CachedStore) Close() error {
	c.cache.Purge()
	return c.backend.Close()
}

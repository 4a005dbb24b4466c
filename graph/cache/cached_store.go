package cache

import (
	"context"

	"github.com/kbchat/ragchat-go/graph/store"
)

// CachedStore decorates a store.Store, serving LoadMemory out of Redis when
// possible and keeping the cache consistent on UpsertMemory. All other
// methods pass straight through.
type CachedStore struct {
	store.Store
	cache *MemoryCache
}

// NewCachedStore wraps backing with a Redis-backed memory cache.
func NewCachedStore(backing store.Store, cache *MemoryCache) *CachedStore {
	return &CachedStore{Store: backing, cache: cache}
}

// LoadMemory implements store.Store, checking the cache before falling
// through to the wrapped store on a miss.
func (c *CachedStore) LoadMemory(ctx context.Context, conversationKey string) (string, error) {
	if mem, ok, err := c.cache.Get(ctx, conversationKey); err == nil && ok {
		return mem, nil
	}
	mem, err := c.Store.LoadMemory(ctx, conversationKey)
	if err != nil {
		return "", err
	}
	_ = c.cache.Set(ctx, conversationKey, mem)
	return mem, nil
}

// UpsertMemory implements store.Store, writing through to both the backing
// store and the cache.
func (c *CachedStore) UpsertMemory(ctx context.Context, conversationKey, memory string) error {
	if err := c.Store.UpsertMemory(ctx, conversationKey, memory); err != nil {
		return err
	}
	return c.cache.Set(ctx, conversationKey, memory)
}

// Close closes both the backing store and the cache connection.
func (c *CachedStore) Close() error {
	_ = c.cache.Close()
	return c.Store.Close()
}

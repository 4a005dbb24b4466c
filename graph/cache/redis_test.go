package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbchat/ragchat-go/graph/store"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, "test:", 0)
}

func TestMemoryCache_GetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	_, ok, err := c.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "conv-1", "summary"))

	val, ok, err := c.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "summary", val)

	require.NoError(t, c.Invalidate(ctx, "conv-1"))
	_, ok, err = c.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, "test:", 50*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "conv-1", "summary"))
	mr.FastForward(100 * time.Millisecond)

	_, ok, err := c.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok, "entry should have expired")
}

func TestCachedStore_LoadMemoryFallsThroughOnMiss(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemStore()
	require.NoError(t, backing.UpsertMemory(ctx, "conv-1", "from store"))

	cached := NewCachedStore(backing, newTestCache(t))

	mem, err := cached.LoadMemory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "from store", mem)

	// Second read should be served from cache; mutate backing directly to
	// prove the cached value, not the store, answers.
	require.NoError(t, backing.UpsertMemory(ctx, "conv-1", "mutated directly"))
	mem, err = cached.LoadMemory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "from store", mem)
}

func TestCachedStore_UpsertMemoryWritesThrough(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemStore()
	cached := NewCachedStore(backing, newTestCache(t))

	require.NoError(t, cached.UpsertMemory(ctx, "conv-1", "v1"))

	mem, err := backing.LoadMemory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "v1", mem)

	mem, err = cached.LoadMemory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "v1", mem)
}

// Package cache fronts the conversation-memory store with a Redis layer, so
// memoryLoad/memoryUpdate can skip a relational round trip on the common
// path. Grounded on the Redis checkpoint store pattern (key-prefix,
// optional TTL, pipeline for multi-key ops).
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryCache wraps a Redis client scoped to conversation-memory strings.
type MemoryCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Options configures a MemoryCache.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, default "ragchat:memory:"
	TTL      time.Duration // 0 means no expiration
}

// New creates a MemoryCache from Options.
func New(opts Options) *MemoryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "ragchat:memory:"
	}
	return &MemoryCache{client: client, prefix: prefix, ttl: opts.TTL}
}

// NewWithClient wraps an already-configured *redis.Client, used by tests to
// inject a miniredis-backed client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *MemoryCache {
	if prefix == "" {
		prefix = "ragchat:memory:"
	}
	return &MemoryCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *MemoryCache) key(conversationKey string) string {
	return fmt.Sprintf("%s%s", c.prefix, conversationKey)
}

// Get returns the cached memory string and true, or "", false on a cache miss.
func (c *MemoryCache) Get(ctx context.Context, conversationKey string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.key(conversationKey)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return val, true, nil
}

// Set writes the memory string for a conversation, applying the configured TTL.
func (c *MemoryCache) Set(ctx context.Context, conversationKey, memory string) error {
	if err := c.client.Set(ctx, c.key(conversationKey), memory, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate removes the cached memory string for a conversation, forcing
// the next load to fall through to the persistent store.
func (c *MemoryCache) Invalidate(ctx context.Context, conversationKey string) error {
	if err := c.client.Del(ctx, c.key(conversationKey)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *MemoryCache) Close() error {
	return c.client.Close()
}

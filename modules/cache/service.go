// Package cache provides a caching layer using the mono.Storage interface.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono/pkg/storage"
)

// CacheService defines the high-level caching operations used by consumers.
type CacheService interface {
	// Get unmarshals the cached value into dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores a JSON-encoded value with the default TTL.
	Set(ctx context.Context, key string, value any) error

	// SetWithTTL stores a JSON-encoded value with a custom TTL.
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// InvalidateAll makes every key written so far unreachable.
	// Only keys under this service's prefix are affected; stale entries expire with their TTL.
	InvalidateAll(ctx context.Context) error

	// Stats returns hit/miss counters.
	Stats() Stats

	// Close closes the underlying storage connection.
	Close() error
}

// Stats holds cache counters.
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Generation int64 `json:"generation"`
}

// cacheService implements CacheService using the Storage interface.
type cacheService struct {
	storage    storage.Storage
	prefix     string
	ttl        time.Duration
	generation atomic.Int64
	hits       atomic.Int64
	misses     atomic.Int64
}

// NewCacheService creates a new CacheService wrapping the provided storage.
func NewCacheService(s storage.Storage, prefix string, ttl time.Duration) CacheService {
	return &cacheService{
		storage: s,
		prefix:  prefix,
		ttl:     ttl,
	}
}

// fullKey scopes key by prefix and the current generation.
func (c *cacheService) fullKey(key string) string {
	return c.prefix + "g" + strconv.FormatInt(c.generation.Load(), 10) + ":" + key
}

// Get retrieves a value from the cache.
func (c *cacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	fullKey := c.fullKey(key)

	data, err := c.storage.GetWithContext(ctx, fullKey)
	if err != nil {
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if len(data) == 0 {
		c.misses.Add(1)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.hits.Add(1)
	return true, nil
}

// Set stores a value with the default TTL.
func (c *cacheService) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *cacheService) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.storage.SetWithContext(ctx, c.fullKey(key), data, ttl); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

// Delete removes a single key.
func (c *cacheService) Delete(ctx context.Context, key string) error {
	if err := c.storage.DeleteWithContext(ctx, c.fullKey(key)); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// InvalidateAll bumps the key generation.
func (c *cacheService) InvalidateAll(_ context.Context) error {
	gen := c.generation.Add(1)
	log.Printf("[cache] Invalidated prefix %s (generation %d)", c.prefix, gen)
	return nil
}

// Stats returns the current counters.
func (c *cacheService) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Generation: c.generation.Load(),
	}
}

// Close closes the underlying storage.
func (c *cacheService) Close() error {
	return c.storage.Close()
}

// nopCacheService always misses. It is used when Redis is not configured.
type nopCacheService struct {
	misses atomic.Int64
}

// NewNopCacheService returns a CacheService that stores nothing.
func NewNopCacheService() CacheService {
	return &nopCacheService{}
}

func (n *nopCacheService) Get(context.Context, string, any) (bool, error) {
	n.misses.Add(1)
	return false, nil
}

func (n *nopCacheService) Set(context.Context, string, any) error { return nil }

func (n *nopCacheService) SetWithTTL(context.Context, string, any, time.Duration) error { return nil }

func (n *nopCacheService) Delete(context.Context, string) error { return nil }

func (n *nopCacheService) InvalidateAll(context.Context) error { return nil }

func (n *nopCacheService) Stats() Stats { return Stats{Misses: n.misses.Load()} }

func (n *nopCacheService) Close() error { return nil }

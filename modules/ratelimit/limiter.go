// Package ratelimit provides a Redis-based sliding window rate limiter and
// the Fiber middleware that applies it to HTTP routes.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the limit for one rule.
type Config struct {
	// Limit is the maximum number of requests allowed in the window.
	Limit int
	// Window is the duration of the sliding window.
	Window time.Duration
}

// DefaultLoginConfig allows ten login attempts per client per minute.
func DefaultLoginConfig() Config {
	return Config{
		Limit:  10,
		Window: time.Minute,
	}
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	Limit      int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// slidingWindowScript trims the window, counts, and records the request atomically.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_size_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_size_ms)
		redis.call('PEXPIRE', counter_key, window_size_ms)
		return {1, limit - count - 1, 0}
	else
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		local retry_after = 0
		if #oldest >= 2 then
			retry_after = oldest[2] + window_size_ms - now
		end
		return {0, 0, retry_after}
	end
`)

// Limiter implements a sliding window rate limiter using Redis sorted sets.
type Limiter struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// NewLimiter creates a new limiter. The client is owned by the caller.
func NewLimiter(client *redis.Client, keyPrefix string) *Limiter {
	return &Limiter{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Allow records one request for key and reports whether it fits in cfg.
func (l *Limiter) Allow(ctx context.Context, key string, cfg Config) (*Result, error) {
	if l.client == nil {
		return nil, fmt.Errorf("rate limiter has no redis client")
	}

	now := l.now()
	redisKey := l.keyPrefix + key
	counterKey := redisKey + ":counter"

	raw, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, counterKey},
		now.UnixMilli(),
		now.Add(-cfg.Window).UnixMilli(),
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}

	if len(raw) < 3 {
		return nil, fmt.Errorf("unexpected result length: %d", len(raw))
	}
	allowed, ok := raw[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected type for allowed: %T", raw[0])
	}
	remaining, ok := raw[1].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected type for remaining: %T", raw[1])
	}
	retryAfterMs, ok := raw[2].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected type for retry_after: %T", raw[2])
	}

	result := &Result{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		Limit:     cfg.Limit,
		ResetAt:   now.Add(cfg.Window),
	}
	if !result.Allowed && retryAfterMs > 0 {
		result.RetryAfter = time.Duration(retryAfterMs) * time.Millisecond
		result.ResetAt = now.Add(result.RetryAfter)
	}
	return result, nil
}

// Count returns how many requests key has made in the current window.
func (l *Limiter) Count(ctx context.Context, key string, cfg Config) (int64, error) {
	if l.client == nil {
		return 0, fmt.Errorf("rate limiter has no redis client")
	}
	windowStart := l.now().Add(-cfg.Window).UnixMilli()
	count, err := l.client.ZCount(ctx, l.keyPrefix+key, strconv.FormatInt(windowStart, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request count: %w", err)
	}
	return count, nil
}

// Reset clears the window for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l.client == nil {
		return nil
	}
	redisKey := l.keyPrefix + key
	return l.client.Del(ctx, redisKey, redisKey+":counter").Err()
}

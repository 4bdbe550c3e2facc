package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis client used for rate limiting.
type Module struct {
	client    *redis.Client
	limiter   *Limiter
	redisAddr string
	keyPrefix string
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new rate limiting module.
func NewModule(redisAddr, keyPrefix string) *Module {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &Module{
		redisAddr: redisAddr,
		keyPrefix: keyPrefix,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rate-limiter"
}

// Start connects to Redis and creates the limiter.
func (m *Module) Start(ctx context.Context) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := m.client.Ping(ctx).Err(); err != nil {
		m.client.Close()
		m.client = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.redisAddr, err)
	}

	m.limiter = NewLimiter(m.client, m.keyPrefix)
	log.Printf("[rate-limiter] Connected to Redis at %s", m.redisAddr)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			log.Printf("[rate-limiter] Error closing Redis connection: %v", err)
		}
	}
	log.Println("[rate-limiter] Module stopped")
	return nil
}

// Limiter returns the limiter, or nil before Start.
func (m *Module) Limiter() Allower {
	if m == nil || m.limiter == nil {
		return nil
	}
	return m.limiter
}

// Health verifies the Redis connection.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "redis client not initialized",
		}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"redis": m.redisAddr},
	}
}

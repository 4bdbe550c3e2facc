package cache

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/storage"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/storage/redis/v3"
)

const (
	defaultRedisHost = "127.0.0.1"
	defaultRedisPort = 6379
	defaultPoolSize  = 50
	dialTimeout      = 2 * time.Second
)

// Config describes where product reads are cached and for how long.
type Config struct {
	// Addr is the Redis "host:port". Missing parts fall back to 127.0.0.1:6379.
	Addr string
	// Prefix scopes every key, e.g. "pos:product:".
	Prefix string
	// TTL bounds how stale a cached product or listing may be.
	TTL time.Duration
	// PoolSize caps Redis connections. Zero means 50.
	PoolSize int
}

// endpoint splits Addr into host and port.
func (c Config) endpoint() (string, int) {
	host, portStr, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return defaultRedisHost, defaultRedisPort
	}
	if host == "" {
		host = defaultRedisHost
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		port = defaultRedisPort
	}
	return host, port
}

func (c Config) storageConfig() redis.Config {
	host, port := c.endpoint()
	pool := c.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}
	return redis.Config{Host: host, Port: port, PoolSize: pool}
}

// PluginModule shares the product cache with every module that asks for the
// "cache" plugin. Inventory is the only consumer today.
type PluginModule struct {
	container types.ServiceContainer
	config    Config
	storage   storage.Storage
	service   CacheService
}

var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates the product cache plugin.
func NewPluginModule(config Config) *PluginModule {
	return &PluginModule{config: config}
}

// Name returns the plugin name.
func (m *PluginModule) Name() string {
	return "cache"
}

// Start dials Redis before opening the pool; the storage driver panics on an
// unreachable server.
func (m *PluginModule) Start(_ context.Context) error {
	host, port := m.config.endpoint()
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("product cache unreachable at %s: %w", addr, err)
	}
	conn.Close()

	m.storage = redis.New(m.config.storageConfig())
	m.service = NewCacheService(m.storage, m.config.Prefix, m.config.TTL)
	log.Printf("[cache] Product cache on %s (prefix %q, ttl %s)", addr, m.config.Prefix, m.config.TTL)
	return nil
}

// Stop closes the pool.
func (m *PluginModule) Stop(_ context.Context) error {
	if m.service == nil {
		return nil
	}
	stats := m.service.Stats()
	if err := m.service.Close(); err != nil {
		return fmt.Errorf("failed to close product cache: %w", err)
	}
	log.Printf("[cache] Product cache closed after %d hits, %d misses", stats.Hits, stats.Misses)
	return nil
}

func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the CacheService consumers use. It is nil until the plugin has started.
func (m *PluginModule) Port() CacheService {
	return m.service
}

// Health reads a sentinel key and reports the hit ratio and invalidation generation.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.storage == nil {
		return mono.HealthStatus{Healthy: false, Message: "product cache not started"}
	}
	if _, err := m.storage.GetWithContext(ctx, m.config.Prefix+"__health__"); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("redis read failed: %v", err)}
	}

	stats := m.service.Stats()
	ratio := 0.0
	if lookups := stats.Hits + stats.Misses; lookups > 0 {
		ratio = float64(stats.Hits) / float64(lookups)
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr":       m.config.Addr,
			"ttl":        m.config.TTL.String(),
			"hit_ratio":  ratio,
			"generation": stats.Generation,
		},
	}
}

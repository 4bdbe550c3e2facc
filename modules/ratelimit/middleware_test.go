package ratelimit

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// countingLimiter is an in-memory fixed window used to exercise the middleware.
type countingLimiter struct {
	mu    sync.Mutex
	seen  map[string]int
	err   error
	calls int
}

func (l *countingLimiter) Allow(_ context.Context, key string, cfg Config) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	l.seen[key]++
	count := l.seen[key]
	res := &Result{Limit: cfg.Limit, ResetAt: time.Now().Add(cfg.Window)}
	if count <= cfg.Limit {
		res.Allowed = true
		res.Remaining = cfg.Limit - count
		return res, nil
	}
	res.RetryAfter = 30 * time.Second
	return res, nil
}

func newTestApp(source func() Allower, keyFn KeyFunc) *fiber.App {
	app := fiber.New()
	mw := NewMiddleware("login", Config{Limit: 2, Window: time.Minute}, source, keyFn)
	app.Post("/login", mw.Handler(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestMiddleware_LimitsByKey(t *testing.T) {
	limiter := &countingLimiter{}
	keyFn := func(c *fiber.Ctx) string { return c.Get("X-Client") }
	app := newTestApp(func() Allower { return limiter }, keyFn)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/login", nil)
		req.Header.Set("X-Client", "till-1")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, resp.StatusCode)
		}
		if got := resp.Header.Get("X-RateLimit-Limit"); got != "2" {
			t.Errorf("X-RateLimit-Limit = %q, want 2", got)
		}
	}

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Client", "till-1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want 30", got)
	}

	// Another client has its own window.
	req = httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Client", "till-2")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("other client status = %d, want 200", resp.StatusCode)
	}

	if _, ok := limiter.seen["login:till-1"]; !ok {
		t.Errorf("keys = %v, want rule-prefixed client key", limiter.seen)
	}
}

func TestMiddleware_FailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("connection refused")}
	app := newTestApp(func() Allower { return limiter }, nil)

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("status = %d, want 200 when limiter errors", resp.StatusCode)
		}
	}
	if limiter.calls != 5 {
		t.Errorf("calls = %d, want 5", limiter.calls)
	}
}

func TestMiddleware_PassesThroughWithoutLimiter(t *testing.T) {
	tests := []struct {
		name   string
		source func() Allower
	}{
		{"nil source", nil},
		{"source returns nil", func() Allower { return nil }},
		{"module not started", (&Module{}).Limiter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.source, nil)
			for i := 0; i < 3; i++ {
				resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
				if err != nil {
					t.Fatalf("app.Test() error = %v", err)
				}
				if resp.StatusCode != fiber.StatusOK {
					t.Errorf("status = %d, want 200", resp.StatusCode)
				}
			}
		})
	}
}

func TestNewLimiter(t *testing.T) {
	limiter := NewLimiter(nil, "test:")
	if limiter.keyPrefix != "test:" {
		t.Errorf("keyPrefix = %q, want test:", limiter.keyPrefix)
	}
	if _, err := limiter.Allow(context.Background(), "k", DefaultLoginConfig()); err == nil {
		t.Error("Allow() without client should fail")
	}
}

func TestLimiter_SlidingWindow(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}

	limiter := NewLimiter(client, "test:pos-ratelimit:")
	defer limiter.Reset(ctx, "login:till")

	cfg := Config{Limit: 3, Window: time.Minute}
	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, "login:till", cfg)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !result.Allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
		if result.Remaining != 3-i-1 {
			t.Errorf("Remaining = %d, want %d", result.Remaining, 3-i-1)
		}
	}

	result, err := limiter.Allow(ctx, "login:till", cfg)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if result.Allowed {
		t.Error("4th request should be denied")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", result.RetryAfter)
	}

	count, err := limiter.Count(ctx, "login:till", cfg)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

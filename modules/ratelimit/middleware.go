package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Allower is the part of Limiter the middleware needs.
type Allower interface {
	Allow(ctx context.Context, key string, cfg Config) (*Result, error)
}

// KeyFunc extracts the client key from a request.
type KeyFunc func(c *fiber.Ctx) string

// ByIP keys requests by client address.
func ByIP(c *fiber.Ctx) string {
	return c.IP()
}

// maxKeyLength limits key length to prevent abuse.
const maxKeyLength = 128

// Middleware applies one rule to a route.
type Middleware struct {
	rule   string
	config Config
	source func() Allower
	keyFn  KeyFunc
	logger *slog.Logger
}

// NewMiddleware creates middleware for rule. source is consulted on every
// request so a limiter that comes up after routing still takes effect;
// a nil source or nil limiter lets requests through.
func NewMiddleware(rule string, config Config, source func() Allower, keyFn KeyFunc) *Middleware {
	if keyFn == nil {
		keyFn = ByIP
	}
	return &Middleware{
		rule:   rule,
		config: config,
		source: source,
		keyFn:  keyFn,
		logger: slog.Default(),
	}
}

// Handler returns the Fiber handler.
func (m *Middleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var limiter Allower
		if m.source != nil {
			limiter = m.source()
		}
		if limiter == nil {
			return c.Next()
		}

		clientKey := m.keyFn(c)
		if clientKey == "" {
			clientKey = "anonymous"
		}
		if len(clientKey) > maxKeyLength {
			clientKey = clientKey[:maxKeyLength]
		}

		result, err := limiter.Allow(c.UserContext(), m.rule+":"+clientKey, m.config)
		if err != nil {
			// Fail open on Redis errors.
			m.logger.Error("Rate limit check failed",
				"rule", m.rule,
				"client", clientKey,
				"error", err)
			return c.Next()
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			m.logger.Warn("Rate limit exceeded",
				"rule", m.rule,
				"client", clientKey,
				"limit", result.Limit,
				"reset_at", result.ResetAt)
			return sendRateLimitExceeded(c, result)
		}

		return c.Next()
	}
}

func setRateLimitHeaders(c *fiber.Ctx, result *Result) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":       "too_many_requests",
		"message":     fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
		"retry_after": retryAfter,
	})
}

package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/pos-billing/modules/api"
	"github.com/example/pos-billing/modules/auth"
	"github.com/example/pos-billing/modules/billing"
	"github.com/example/pos-billing/modules/cache"
	"github.com/example/pos-billing/modules/database"
	"github.com/example/pos-billing/modules/inventory"
	"github.com/example/pos-billing/modules/notification"
	"github.com/example/pos-billing/modules/ratelimit"
	"github.com/example/pos-billing/modules/sales"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	// Load configuration from environment
	dbPath := getEnv("DB_PATH", "./pos.db")
	dbDebug := getEnvBool("DB_DEBUG", false)
	httpPort := getEnvInt("HTTP_PORT", 3000)
	redisAddr := getEnv("REDIS_ADDR", "")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	cachePrefix := getEnv("CACHE_PREFIX", "pos:product:")
	shutdownTimeout := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	jwtConfig := auth.DefaultJWTConfig()
	jwtConfig.SecretKey = getEnv("JWT_SECRET_KEY", jwtConfig.SecretKey)
	jwtConfig.Issuer = getEnv("JWT_ISSUER", jwtConfig.Issuer)

	billingConfig := billing.DefaultConfig()
	billingConfig.TaxRate = getEnvFloat("BILLING_TAX_RATE", billingConfig.TaxRate)
	billingConfig.PaymentMethod = getEnv("BILLING_PAYMENT_METHOD", billingConfig.PaymentMethod)

	loginLimit := ratelimit.DefaultLoginConfig()
	loginLimit.Limit = getEnvInt("LOGIN_RATE_LIMIT", loginLimit.Limit)
	loginLimit.Window = getEnvDuration("LOGIN_RATE_WINDOW", loginLimit.Window)

	log.Println("=== POS Billing ===")
	log.Printf("Database: %s", dbPath)
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Tax rate: %.2f%%", billingConfig.TaxRate)
	if redisAddr != "" {
		log.Printf("Redis: %s (cache TTL %s)", redisAddr, cacheTTL)
	} else {
		log.Println("Redis: disabled (no product cache, no login rate limiting)")
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Plugins start before modules and are injected through SetPlugin.
	if err := app.RegisterPlugin(database.NewPluginModule(dbPath, dbDebug), "database"); err != nil {
		log.Fatalf("Failed to register database plugin: %v", err)
	}
	var rateLimiter *ratelimit.Module
	if redisAddr != "" {
		if err := app.RegisterPlugin(cache.NewPluginModule(cache.Config{
			Addr:   redisAddr,
			Prefix: cachePrefix,
			TTL:    cacheTTL,
		}), "cache"); err != nil {
			log.Fatalf("Failed to register cache plugin: %v", err)
		}
		rateLimiter = ratelimit.NewModule(redisAddr, "pos:ratelimit:")
	}

	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule(auth.Config{
		JWT:        jwtConfig,
		BcryptCost: auth.DefaultBcryptCost,
		Admin: auth.AdminSeed{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}))
	app.Register(inventory.NewModule())
	app.Register(billing.NewModule(billingConfig))
	app.Register(sales.NewModule())
	app.Register(notification.NewModule(notification.DefaultCapacity))
	if rateLimiter != nil {
		app.Register(rateLimiter)
	}
	app.Register(api.NewModule(api.Config{Port: httpPort, LoginLimit: loginLimit}, rateLimiter))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(httpPort)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/login        - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh      - Refresh access token")
	log.Println("  GET    /health                   - Health check")
	log.Println("")
	log.Println("  Cashier Endpoints (staff or admin):")
	log.Println("  GET    /api/v1/auth/me           - Current account")
	log.Println("  POST   /api/v1/billing/prepare   - Price a cart as a pending invoice")
	log.Println("  POST   /api/v1/billing/confirm   - Confirm a pending invoice")
	log.Println("  POST   /api/v1/billing/cancel    - Cancel a pending invoice")
	log.Println("  POST   /api/v1/billing           - Prepare and confirm in one step")
	log.Println("  GET    /api/v1/products          - List or search products")
	log.Println("  GET    /api/v1/products/:id      - Get a product")
	log.Println("  GET    /api/v1/sales/:id         - Get an invoice")
	log.Println("")
	log.Println("  Admin Endpoints:")
	log.Println("  POST   /api/v1/products          - Create a product")
	log.Println("  PATCH  /api/v1/products/:id      - Update a product")
	log.Println("  DELETE /api/v1/products/:id      - Delete a product")
	log.Println("  GET    /api/v1/products/stats    - Catalog totals")
	log.Println("  GET    /api/v1/sales             - List invoices")
	log.Println("  GET    /api/v1/users             - List staff")
	log.Println("  POST   /api/v1/users             - Create a staff account")
	log.Println("  GET    /api/v1/notifications     - Sales and stock feed")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvFloat returns environment variable as float64 or default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Warning: invalid float value for %s: %s, using default: %g", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

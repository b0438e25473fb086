package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Sync ingress limits (per IP). Producers push one request per
	// entity, so a full agent snapshot is dozens of requests in a burst.
	SyncMax        int
	SyncExpiration time.Duration

	// Dashboard read limits (per IP)
	DashboardMax        int
	DashboardExpiration time.Duration

	// WebSocket connection attempts (per IP)
	WebSocketMax        int
	WebSocketExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Ingress: 600/min = 10 req/sec, enough for a trade backlog replay
		SyncMax:        600,
		SyncExpiration: 1 * time.Minute,

		// Dashboard: 240/min = 4 req/sec, a polling UI stays well under
		DashboardMax:        240,
		DashboardExpiration: 1 * time.Minute,

		// WebSocket: 20 connection attempts/min
		WebSocketMax:        20,
		WebSocketExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_SYNC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.SyncMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_DASHBOARD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.DashboardMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_WEBSOCKET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.WebSocketMax = n
		}
	}

	// Development mode: more lenient limits
	if os.Getenv("ENVIRONMENT") == "development" {
		config.SyncMax = 5000
		config.DashboardMax = 2000
		config.WebSocketMax = 100
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// SyncRateLimiter creates a rate limiter for the sync ingress
func SyncRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.SyncMax,
		Expiration: config.SyncExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "sync:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Sync ingress limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many sync requests. Please slow down.",
				"retry_after": int(config.SyncExpiration.Seconds()),
			})
		},
	})
}

// DashboardRateLimiter creates a rate limiter for dashboard reads
func DashboardRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.DashboardMax,
		Expiration: config.DashboardExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "dash:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Dashboard limit reached for IP: %s on %s", c.IP(), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please wait before refreshing.",
				"retry_after": int(config.DashboardExpiration.Seconds()),
			})
		},
	})
}

// WebSocketRateLimiter creates a rate limiter for WebSocket connection attempts
func WebSocketRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.WebSocketMax,
		Expiration: config.WebSocketExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ws:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] WebSocket connection limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many connection attempts. Please wait before reconnecting.",
				"retry_after": int(config.WebSocketExpiration.Seconds()),
			})
		},
	})
}

package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestSyncRateLimiterBlocksAfterMax(t *testing.T) {
	cfg := &RateLimitConfig{SyncMax: 2, SyncExpiration: time.Minute}

	app := fiber.New()
	app.Use(SyncRateLimiter(cfg))
	app.Get("/api/sync/pending", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"pending": false})
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/sync/pending", nil), -1)
		if err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i+1, resp.StatusCode, fiber.StatusOK)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/sync/pending", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("request over limit status = %d, want %d", resp.StatusCode, fiber.StatusTooManyRequests)
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()

	if cfg.SyncMax <= 0 || cfg.DashboardMax <= 0 || cfg.WebSocketMax <= 0 {
		t.Errorf("defaults must be positive: %+v", cfg)
	}
	if cfg.SyncExpiration != time.Minute {
		t.Errorf("SyncExpiration = %v, want 1m", cfg.SyncExpiration)
	}
}

func TestLoadRateLimitConfigOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_SYNC", "42")
	t.Setenv("RATE_LIMIT_DASHBOARD", "bogus")
	t.Setenv("ENVIRONMENT", "")

	cfg := LoadRateLimitConfig()

	if cfg.SyncMax != 42 {
		t.Errorf("SyncMax = %d, want 42", cfg.SyncMax)
	}
	if cfg.DashboardMax != DefaultRateLimitConfig().DashboardMax {
		t.Errorf("DashboardMax = %d, want default for unparsable override", cfg.DashboardMax)
	}
}

package handlers

import (
	"context"
	"time"

	"fleetdeck/internal/database"
	"fleetdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db        *database.MongoDB
	redis     *services.RedisService
	events    *EventsHandler
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.MongoDB, redis *services.RedisService, events *EventsHandler) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redis,
		events:    events,
		startedAt: time.Now(),
	}
}

// Handle responds with server health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	status := "healthy"
	mongoStatus := "up"
	if err := h.db.Ping(ctx); err != nil {
		status = "degraded"
		mongoStatus = "down"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "up"
		if err := h.redis.Ping(ctx); err != nil {
			status = "degraded"
			redisStatus = "down"
		}
	}

	code := fiber.StatusOK
	if mongoStatus == "down" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":      status,
		"mongodb":     mongoStatus,
		"redis":       redisStatus,
		"connections": h.events.Count(),
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

package handlers

import (
	"log"

	"fleetdeck/internal/models"
	"fleetdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SyncHandler handles the authenticated sync ingress. Every route here is
// called by external producers, never by the dashboard.
type SyncHandler struct {
	activities    *services.ActivityService
	sessions      *services.SessionService
	agentStatus   *services.AgentStatusService
	cron          *services.CronService
	costs         *services.CostService
	notifications *services.NotificationService
	tasks         *services.TaskService
	syncRequests  *services.SyncRequestService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(
	activities *services.ActivityService,
	sessions *services.SessionService,
	agentStatus *services.AgentStatusService,
	cron *services.CronService,
	costs *services.CostService,
	notifications *services.NotificationService,
	tasks *services.TaskService,
	syncRequests *services.SyncRequestService,
) *SyncHandler {
	return &SyncHandler{
		activities:    activities,
		sessions:      sessions,
		agentStatus:   agentStatus,
		cron:          cron,
		costs:         costs,
		notifications: notifications,
		tasks:         tasks,
		syncRequests:  syncRequests,
	}
}

// SyncActivity records a single activity event
// POST /api/sync/activity
func (h *SyncHandler) SyncActivity(c *fiber.Ctx) error {
	var req models.SyncActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.activities.Record(c.Context(), &req)
	if err != nil {
		log.Printf("❌ Failed to record activity: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record activity",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncSession upserts a session keyed by sessionId
// POST /api/sync/session
func (h *SyncHandler) SyncSession(c *fiber.Ctx) error {
	var req models.SyncSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.sessions.Upsert(c.Context(), &req)
	if err != nil {
		log.Printf("❌ Failed to sync session %s: %v", req.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sync session",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncAgentStatus patches an existing agent's status row. Unknown agents
// are silently ignored; provisioning happens elsewhere.
// POST /api/sync/agent-status
func (h *SyncHandler) SyncAgentStatus(c *fiber.Ctx) error {
	var req models.SyncAgentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.agentStatus.SyncStatus(c.Context(), &req)
	if err != nil {
		log.Printf("❌ Failed to sync agent status %s: %v", req.AgentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sync agent status",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncCron reconciles a batch of cron job definitions. Individual bad jobs
// fail independently; the batch always returns a summary.
// POST /api/sync/cron
func (h *SyncHandler) SyncCron(c *fiber.Ctx) error {
	var req models.SyncCronRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Jobs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No cron jobs provided",
		})
	}

	summary := h.cron.SyncBatch(c.Context(), &req)
	log.Printf("✅ Cron sync: %d synced, %d failed", summary.Synced, summary.Failed)
	return c.JSON(fiber.Map{"ok": true, "summary": summary})
}

// SyncCost records a cost ledger entry
// POST /api/sync/cost
func (h *SyncHandler) SyncCost(c *fiber.Ctx) error {
	var req models.SyncCostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.costs.Record(c.Context(), &req)
	if err != nil {
		log.Printf("❌ Failed to record cost entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record cost entry",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncNotification records a notification
// POST /api/sync/notification
func (h *SyncHandler) SyncNotification(c *fiber.Ctx) error {
	var req models.SyncNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.notifications.Record(c.Context(), &req)
	if err != nil {
		log.Printf("❌ Failed to record notification: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record notification",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncTask upserts a task keyed by taskId
// POST /api/sync/task
func (h *SyncHandler) SyncTask(c *fiber.Ctx) error {
	var req models.SyncTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.tasks.Upsert(c.Context(), &req)
	if err != nil {
		log.Printf("❌ Failed to sync task %s: %v", req.TaskID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sync task",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// GetPending tells the poller whether a refresh has been requested
// GET /api/sync/pending
func (h *SyncHandler) GetPending(c *fiber.Ctx) error {
	resp, err := h.syncRequests.GetPending(c.Context())
	if err != nil {
		log.Printf("❌ Failed to read pending sync requests: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read pending sync requests",
		})
	}

	return c.JSON(resp)
}

// Fulfill marks every pending sync request fulfilled
// POST /api/sync/fulfill
func (h *SyncHandler) Fulfill(c *fiber.Ctx) error {
	count, err := h.syncRequests.FulfillPending(c.Context())
	if err != nil {
		log.Printf("❌ Failed to fulfill sync requests: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fulfill sync requests",
		})
	}

	return c.JSON(models.FulfillResponse{Fulfilled: count})
}

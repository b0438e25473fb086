package handlers

import (
	"log"
	"strconv"

	"fleetdeck/internal/models"
	"fleetdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler serves the trusted same-origin dashboard surface: reads,
// the sync-request trigger, and the two direct mutations (mark-read, stats).
type DashboardHandler struct {
	activities    *services.ActivityService
	sessions      *services.SessionService
	agentStatus   *services.AgentStatusService
	cron          *services.CronService
	costs         *services.CostService
	notifications *services.NotificationService
	tasks         *services.TaskService
	trading       *services.TradingService
	syncRequests  *services.SyncRequestService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	activities *services.ActivityService,
	sessions *services.SessionService,
	agentStatus *services.AgentStatusService,
	cron *services.CronService,
	costs *services.CostService,
	notifications *services.NotificationService,
	tasks *services.TaskService,
	trading *services.TradingService,
	syncRequests *services.SyncRequestService,
) *DashboardHandler {
	return &DashboardHandler{
		activities:    activities,
		sessions:      sessions,
		agentStatus:   agentStatus,
		cron:          cron,
		costs:         costs,
		notifications: notifications,
		tasks:         tasks,
		trading:       trading,
		syncRequests:  syncRequests,
	}
}

// limitQuery parses ?limit= with a default and a hard cap
func limitQuery(c *fiber.Ctx, def int64) int64 {
	limit, err := strconv.ParseInt(c.Query("limit", ""), 10, 64)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > 500 {
		return 500
	}
	return limit
}

// RequestSync records that the dashboard wants fresh data
// POST /api/dashboard/sync-request
func (h *DashboardHandler) RequestSync(c *fiber.Ctx) error {
	id, err := h.syncRequests.RequestSync(c.Context())
	if err != nil {
		log.Printf("❌ Failed to create sync request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create sync request",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// LastSync reports the sync request state for the dashboard header
// GET /api/dashboard/last-sync
func (h *DashboardHandler) LastSync(c *fiber.Ctx) error {
	resp, err := h.syncRequests.GetLastSync(c.Context())
	if err != nil {
		log.Printf("❌ Failed to read last sync: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read last sync",
		})
	}

	return c.JSON(resp)
}

// ListActivities returns the recent activity feed, optionally filtered by
// agent or full-text query
// GET /api/dashboard/activities?agent=&q=&limit=
func (h *DashboardHandler) ListActivities(c *fiber.Ctx) error {
	limit := limitQuery(c, 50)

	if q := c.Query("q"); q != "" {
		activities, err := h.activities.Search(c.Context(), q, limit)
		if err != nil {
			log.Printf("❌ Activity search failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to search activities",
			})
		}
		return c.JSON(activities)
	}

	activities, err := h.activities.ListRecent(c.Context(), c.Query("agent"), limit)
	if err != nil {
		log.Printf("❌ Failed to list activities: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list activities",
		})
	}

	return c.JSON(activities)
}

// ListSessions returns recent sessions
// GET /api/dashboard/sessions?agent=&limit=
func (h *DashboardHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.sessions.ListRecent(c.Context(), c.Query("agent"), limitQuery(c, 50))
	if err != nil {
		log.Printf("❌ Failed to list sessions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list sessions",
		})
	}

	return c.JSON(sessions)
}

// GetSession returns a single session by sessionId
// GET /api/dashboard/sessions/:id
func (h *DashboardHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Context(), c.Params("id"))
	if err != nil {
		if err.Error() == "session not found" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}
		log.Printf("❌ Failed to get session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get session",
		})
	}

	return c.JSON(session)
}

// ListAgents returns every agent status row
// GET /api/dashboard/agents
func (h *DashboardHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.agentStatus.List(c.Context())
	if err != nil {
		log.Printf("❌ Failed to list agents: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list agents",
		})
	}

	return c.JSON(agents)
}

// UpdateAgentStats applies relative counter deltas for one agent. This is
// the increment path; the sync path overwrites instead.
// POST /api/dashboard/agents/:id/stats
func (h *DashboardHandler) UpdateAgentStats(c *fiber.Ctx) error {
	agentID := c.Params("id")
	if agentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Agent ID is required",
		})
	}

	var req models.UpdateStatsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.agentStatus.UpdateStats(c.Context(), agentID, &req); err != nil {
		if err.Error() == "agent not found" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Agent not found",
			})
		}
		log.Printf("❌ Failed to update stats for %s: %v", agentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update agent stats",
		})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// ListCronJobs returns cron job definitions
// GET /api/dashboard/cron?agent=
func (h *DashboardHandler) ListCronJobs(c *fiber.Ctx) error {
	jobs, err := h.cron.List(c.Context(), c.Query("agent"))
	if err != nil {
		log.Printf("❌ Failed to list cron jobs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list cron jobs",
		})
	}

	return c.JSON(jobs)
}

// ListTasks returns the task board
// GET /api/dashboard/tasks?agent=&status=
func (h *DashboardHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.List(c.Context(), c.Query("agent"), c.Query("status"))
	if err != nil {
		log.Printf("❌ Failed to list tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tasks",
		})
	}

	return c.JSON(tasks)
}

// ListNotifications returns recent notifications, optionally unread-only or
// full-text filtered
// GET /api/dashboard/notifications?unread=true&q=&limit=
func (h *DashboardHandler) ListNotifications(c *fiber.Ctx) error {
	limit := limitQuery(c, 50)

	if q := c.Query("q"); q != "" {
		notifications, err := h.notifications.Search(c.Context(), q, limit)
		if err != nil {
			log.Printf("❌ Notification search failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to search notifications",
			})
		}
		return c.JSON(notifications)
	}

	notifications, err := h.notifications.ListRecent(c.Context(), c.Query("unread") == "true", limit)
	if err != nil {
		log.Printf("❌ Failed to list notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list notifications",
		})
	}

	return c.JSON(notifications)
}

// MarkNotificationRead flips one notification to read
// POST /api/dashboard/notifications/:id/read
func (h *DashboardHandler) MarkNotificationRead(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Notification ID is required",
		})
	}

	if err := h.notifications.MarkRead(c.Context(), id); err != nil {
		if err.Error() == "notification not found" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Notification not found",
			})
		}
		log.Printf("❌ Failed to mark notification %s read: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark notification read",
		})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// ListCosts returns recent cost ledger entries
// GET /api/dashboard/costs?agent=&limit=
func (h *DashboardHandler) ListCosts(c *fiber.Ctx) error {
	entries, err := h.costs.ListRecent(c.Context(), c.Query("agent"), limitQuery(c, 100))
	if err != nil {
		log.Printf("❌ Failed to list cost entries: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list cost entries",
		})
	}

	return c.JSON(entries)
}

// ListTrades returns recent trades for one bot
// GET /api/dashboard/trading/:bot/trades?limit=
func (h *DashboardHandler) ListTrades(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	trades, err := h.trading.ListTrades(c.Context(), bot, limitQuery(c, 100))
	if err != nil {
		log.Printf("❌ Failed to list trades for %s: %v", bot, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list trades",
		})
	}

	return c.JSON(trades)
}

// ListPositions returns open positions for one bot
// GET /api/dashboard/trading/:bot/positions
func (h *DashboardHandler) ListPositions(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	positions, err := h.trading.ListPositions(c.Context(), bot)
	if err != nil {
		log.Printf("❌ Failed to list positions for %s: %v", bot, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list positions",
		})
	}

	return c.JSON(positions)
}

// ListDailyPnl returns the daily pnl series for one bot
// GET /api/dashboard/trading/:bot/pnl?limit=
func (h *DashboardHandler) ListDailyPnl(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	rows, err := h.trading.ListDailyPnl(c.Context(), bot, limitQuery(c, 90))
	if err != nil {
		log.Printf("❌ Failed to list daily pnl for %s: %v", bot, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list daily pnl",
		})
	}

	return c.JSON(rows)
}

// ListStrategyPerformance returns per-strategy aggregates for one bot
// GET /api/dashboard/trading/:bot/strategy
func (h *DashboardHandler) ListStrategyPerformance(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	rows, err := h.trading.ListStrategyPerformance(c.Context(), bot)
	if err != nil {
		log.Printf("❌ Failed to list strategy performance for %s: %v", bot, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list strategy performance",
		})
	}

	return c.JSON(rows)
}

// ListTurnLogs returns the bot decision-turn log
// GET /api/dashboard/trading/:bot/activity?limit=
func (h *DashboardHandler) ListTurnLogs(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	logs, err := h.trading.ListTurnLogs(c.Context(), bot, limitQuery(c, 50))
	if err != nil {
		log.Printf("❌ Failed to list turn logs for %s: %v", bot, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list turn logs",
		})
	}

	return c.JSON(logs)
}

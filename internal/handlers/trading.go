package handlers

import (
	"log"

	"fleetdeck/internal/models"
	"fleetdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TradingHandler handles ingress for the two trading bot mirrors. Both bots
// share the same shapes; the :bot route param selects the collection set.
type TradingHandler struct {
	service *services.TradingService
}

// NewTradingHandler creates a new trading handler
func NewTradingHandler(service *services.TradingService) *TradingHandler {
	return &TradingHandler{service: service}
}

// botParam resolves the :bot route parameter, writing the 400 itself
func botParam(c *fiber.Ctx) (models.Bot, bool) {
	bot, err := models.ParseBot(c.Params("bot"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
		return "", false
	}
	return bot, true
}

// SyncTrade overwrites a trade keyed by tradeId
// POST /api/sync/trading/:bot/trade
func (h *TradingHandler) SyncTrade(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	var trade models.Trade
	if err := c.BodyParser(&trade); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := trade.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.service.SyncTrade(c.Context(), bot, &trade)
	if err != nil {
		return tradingWriteError(c, "trade", err)
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncPosition overwrites a position keyed by positionId
// POST /api/sync/trading/:bot/position
func (h *TradingHandler) SyncPosition(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	var position models.Position
	if err := c.BodyParser(&position); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := position.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.service.SyncPosition(c.Context(), bot, &position)
	if err != nil {
		return tradingWriteError(c, "position", err)
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncDailyPnl overwrites a daily pnl row keyed by date
// POST /api/sync/trading/:bot/pnl
func (h *TradingHandler) SyncDailyPnl(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	var pnl models.DailyPnl
	if err := c.BodyParser(&pnl); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := pnl.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.service.SyncDailyPnl(c.Context(), bot, &pnl)
	if err != nil {
		return tradingWriteError(c, "daily pnl", err)
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncStrategyPerformance overwrites a strategy row keyed by strategy name
// POST /api/sync/trading/:bot/strategy
func (h *TradingHandler) SyncStrategyPerformance(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	var perf models.StrategyPerformance
	if err := c.BodyParser(&perf); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := perf.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.service.SyncStrategyPerformance(c.Context(), bot, &perf)
	if err != nil {
		return tradingWriteError(c, "strategy performance", err)
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncTurnLog upserts a bot decision-turn log keyed by turnId
// POST /api/sync/trading/:bot/activity
func (h *TradingHandler) SyncTurnLog(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	var req models.SyncTurnLogRequest
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

	id, err := h.service.SyncTurnLog(c.Context(), bot, &req)
	if err != nil {
		return tradingWriteError(c, "turn log", err)
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// SyncStatus patches the bot's row in the shared agent status collection
// POST /api/sync/trading/:bot/status
func (h *TradingHandler) SyncStatus(c *fiber.Ctx) error {
	bot, ok := botParam(c)
	if !ok {
		return nil
	}

	var req models.SyncAgentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// The route param is authoritative for which agent row gets patched
	req.AgentID = string(bot)

	id, err := h.service.SyncStatus(c.Context(), &req)
	if err != nil {
		return tradingWriteError(c, "status", err)
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

func tradingWriteError(c *fiber.Ctx, entity string, err error) error {
	log.Printf("❌ Failed to sync trading %s: %v", entity, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to sync trading " + entity,
	})
}

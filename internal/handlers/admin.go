package handlers

import (
	"log"

	"fleetdeck/internal/database"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
)

// AdminHandler handles administrative operations. Everything here sits
// behind the sync bearer token.
type AdminHandler struct {
	db *database.MongoDB
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *database.MongoDB) *AdminHandler {
	return &AdminHandler{db: db}
}

// syncedCollections are the collections the producers repopulate on the
// next sync. Agent status rows stay; they are owned by provisioning.
var syncedCollections = []string{
	database.CollectionActivities,
	database.CollectionSessions,
	database.CollectionCronJobs,
	database.CollectionCostEntries,
	database.CollectionNotifications,
	database.CollectionTasks,
	database.CollectionSyncRequests,
	database.CollectionOracleTrades,
	database.CollectionOraclePositions,
	database.CollectionOracleDailyPnl,
	database.CollectionOracleStrategyPerf,
	database.CollectionOracleActivityLog,
	database.CollectionMakoTrades,
	database.CollectionMakoPositions,
	database.CollectionMakoDailyPnl,
	database.CollectionMakoStrategyPerf,
	database.CollectionMakoActivityLog,
}

// Clear wipes every synced collection for demo reseeding
// POST /api/admin/clear
func (h *AdminHandler) Clear(c *fiber.Ctx) error {
	cleared := make(map[string]int64, len(syncedCollections))

	for _, name := range syncedCollections {
		result, err := h.db.Collection(name).DeleteMany(c.Context(), bson.M{})
		if err != nil {
			log.Printf("❌ Failed to clear %s: %v", name, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to clear " + name,
			})
		}
		cleared[name] = result.DeletedCount
	}

	log.Printf("🧹 Admin clear wiped %d collections", len(cleared))
	return c.JSON(fiber.Map{"ok": true, "cleared": cleared})
}

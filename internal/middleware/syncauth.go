package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SyncAuthMiddleware validates the shared bearer token for the sync ingress.
// Every producer-facing route sits behind it. An empty configured secret
// rejects everything; the ingress never falls open on misconfiguration.
func SyncAuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			log.Println("❌ [SYNC-AUTH] SYNC_API_SECRET not configured, rejecting request")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Sync ingress is not configured",
			})
		}

		auth := c.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token. Include Authorization: Bearer header.",
			})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			log.Printf("❌ [SYNC-AUTH] Invalid token attempt from %s", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid sync token",
			})
		}

		return c.Next()
	}
}

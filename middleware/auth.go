// middleware/auth.go
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const userIDLocal = "user_id"

// UserContext requires the X-User-ID header set by the gateway and exposes it
// to handlers through UserID.
func UserContext(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Warn("❌ X-User-ID missing on secured route", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through gateway with auth context",
			})
		}
		c.Locals(userIDLocal, userID)
		return c.Next()
	}
}

// UserID returns the caller identity stored by UserContext.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDLocal).(string)
	return id
}

// middleware/gateway.go
package middleware

import (
	"strings"

	"pie-progression/logger"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the Bearer token from the Gateway.
func GatewayAuthMiddleware(expectedToken string, log *logger.Logger) fiber.Handler {
	log = log.With("middleware", "GatewayAuth")

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Warn("missing Authorization header", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// accept "Bearer <token>" or the raw token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != expectedToken {
			log.Warn("invalid gateway token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}
		return c.Next()
	}
}

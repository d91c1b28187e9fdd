// middleware/auth.go
package middleware

import (
	"strings"

	"pie-progression/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserID    = "user_id"
	LocalUserRoles = "user_roles"
)

// UserContextMiddleware extracts user identity and roles set by the Gateway.
// Routes under /s/ are refused without X-User-ID.
func UserContextMiddleware(log *logger.Logger) fiber.Handler {
	log = log.With("middleware", "UserContext")

	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		rolesStr := c.Get("X-User-Roles")

		if strings.HasPrefix(c.Path(), "/s/") && userID == "" {
			log.Warn("X-User-ID required but missing on secured route", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(rolesStr, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRoles, roles)
		return c.Next()
	}
}

// UserID returns the caller identity attached by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

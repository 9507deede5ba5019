package security

import (
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// APIKeyGuard authenticates the calling service and binds the acting user.
// X-User-ID is required on the API surface; an X-Admin-Token matching the
// configured token additionally marks the request as admin-driven.
func APIKeyGuard() fiber.Handler {
	apiKey := os.Getenv("API_KEY")
	adminToken := os.Getenv("ADMIN_TOKEN")

	return func(c *fiber.Ctx) error {
		if c.Get("X-API-Key") != apiKey {
			return c.Status(401).JSON(fiber.Map{"error": "unauthorized"})
		}

		uid, err := strconv.ParseInt(c.Get("X-User-ID"), 10, 64)
		if err != nil || uid <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "missing or invalid X-User-ID"})
		}
		c.Locals("uid", uid)

		if token := c.Get("X-Admin-Token"); token != "" && token == adminToken {
			c.Locals("is_admin", true)
		}

		return c.Next()
	}
}

func AdminGuard() fiber.Handler {
	admin := os.Getenv("ADMIN_TOKEN")

	return func(c *fiber.Ctx) error {
		if c.Get("X-Admin-Token") != admin {
			return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}

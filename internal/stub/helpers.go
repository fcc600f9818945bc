package stub

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// respond writes the backend's uniform success envelope.
func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// fail writes the uniform error envelope.
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// parseID reads a numeric path parameter. On failure it writes the 400
// response and returns ok=false.
func parseID(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = fail(c, fiber.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentUserID returns the authenticated user's ID, 0 for anonymous viewers.
func currentUserID(c *fiber.Ctx) uint {
	if v, ok := c.Locals("userID").(uint); ok {
		return v
	}
	return 0
}

// currentRole returns the authenticated user's role, empty for anonymous.
func currentRole(c *fiber.Ctx) string {
	if v, ok := c.Locals("role").(string); ok {
		return v
	}
	return ""
}

package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// OwnerIDHeader carries the caller's identity, set by the gateway in
	// front of this service.
	OwnerIDHeader = "X-User-ID"
	// OwnerIDLocalKey is the context-locals key holding the owner ID.
	OwnerIDLocalKey = "owner_id"
)

// Identity requires an X-User-ID header on every request and stores the
// value in context locals for handlers. Requests without one get 401.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(OwnerIDHeader)
		if owner == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
		}

		c.Locals(OwnerIDLocalKey, owner)

		return c.Next()
	}
}

// OwnerID returns the owner ID stored by Identity, or "" if absent.
func OwnerID(c *fiber.Ctx) string {
	if v, ok := c.Locals(OwnerIDLocalKey).(string); ok {
		return v
	}
	return ""
}

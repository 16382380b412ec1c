package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"printdesk/internal/identity"
)

// OwnerIDLocalKey is the Fiber locals key holding the authenticated user's id.
const OwnerIDLocalKey = "owner_id"

// Auth resolves the bearer token through v and stores the owner id in locals.
// Requests without a valid token get 401 through onFail.
func Auth(v identity.Verifier, onFail fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return onFail(c)
		}
		owner, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			return onFail(c)
		}
		c.Locals(OwnerIDLocalKey, owner)
		return c.Next()
	}
}

// OwnerID returns the id stored by Auth, or "" outside authenticated routes.
func OwnerID(c *fiber.Ctx) string {
	s, _ := c.Locals(OwnerIDLocalKey).(string)
	return s
}

package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/identity"
)

// Identity exposes the authenticated user of the request as an identity.Context.
// Requests without a subject or with an unknown role resolve to no user.
func Identity(c *fiber.Ctx) identity.Context {
	id, ok := c.Locals("user_id").(uint)
	if !ok || id == 0 {
		return identity.Anonymous()
	}
	role, err := identity.ParseRole(normalizeRoleValue(c.Locals("user_role")))
	if err != nil {
		return identity.Anonymous()
	}
	return identity.NewStatic(id, role)
}

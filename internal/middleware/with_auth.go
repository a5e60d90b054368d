package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// Auth role constants used by WithAuth helper.
const (
	AuthRoleAny     = "any"
	AuthRoleStudent = "student"
	AuthRoleTeacher = "teacher"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role string
}

// WithAuth wraps a single route handler with the identity and role guard.
// Every option requires an authenticated student or teacher.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := opts.Role
	if role == "" {
		role = AuthRoleAny
	}

	return func(c *fiber.Ctx) error {
		user, ok := Identity(c).CurrentUser()
		if !ok {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		switch role {
		case AuthRoleAny:
		case AuthRoleStudent:
			if user.Role != identity.RoleStudent {
				return utils.Fail(c, fiber.StatusForbidden, "only students can perform this action", nil)
			}
		case AuthRoleTeacher:
			if user.Role != identity.RoleTeacher {
				return utils.Fail(c, fiber.StatusForbidden, "only teachers can perform this action", nil)
			}
		default:
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}

		return handler(c)
	}
}

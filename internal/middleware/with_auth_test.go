package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/middleware"
)

func guardedApp(userID interface{}, role string, opts middleware.AuthOptions) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != nil {
			c.Locals("user_id", userID)
		}
		c.Locals("user_role", role)
		return c.Next()
	})
	app.Get("/", middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}, opts))
	return app
}

func TestWithAuthStudentRole(t *testing.T) {
	app := guardedApp(uint(10), "Student", middleware.AuthOptions{Role: middleware.AuthRoleStudent})

	resp := perform(t, app)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestWithAuthStudentRoleDenied(t *testing.T) {
	app := guardedApp(uint(1), "teacher", middleware.AuthOptions{Role: middleware.AuthRoleStudent})

	resp := perform(t, app)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWithAuthTeacherRole(t *testing.T) {
	app := guardedApp(uint(1), "teacher", middleware.AuthOptions{Role: middleware.AuthRoleTeacher})
	require.Equal(t, fiber.StatusNoContent, perform(t, app).StatusCode)

	app = guardedApp(uint(10), "student", middleware.AuthOptions{Role: middleware.AuthRoleTeacher})
	require.Equal(t, fiber.StatusForbidden, perform(t, app).StatusCode)
}

func TestWithAuthUnknownRoleIsUnauthenticated(t *testing.T) {
	app := guardedApp(uint(10), "guest", middleware.AuthOptions{Role: middleware.AuthRoleAny})

	resp := perform(t, app)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWithAuthAnyRequiresUser(t *testing.T) {
	app := guardedApp(nil, "", middleware.AuthOptions{})

	resp := perform(t, app)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func perform(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	GradingHandler    *handler.GradingHandler
	AssistHandler     *handler.AssistHandler
	ActivityHandler   *handler.ActivityHandler
	AnalyticsHandler  *handler.AnalyticsHandler
	HealthChecks      map[string]handler.Pinger
	JWTMiddleware     fiber.Handler
	AssistLimiter     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	assistLimiter := deps.AssistLimiter
	if assistLimiter == nil {
		assistLimiter = middleware.RateLimit("assist", cfg.AssistRateLimit, cfg.AssistRateWindow)
	}

	assignments := api.Group("/assignments", jwtMiddleware)
	submissions := api.Group("/submissions", jwtMiddleware)

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterAssignmentRoutes(assignments)
		deps.SubmissionHandler.RegisterSubmissionRoutes(submissions)
	}

	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(submissions)
	}

	if deps.AssistHandler != nil {
		deps.AssistHandler.RegisterAssignmentRoutes(assignments, assistLimiter)
		deps.AssistHandler.RegisterSubmissionRoutes(submissions, assistLimiter)
	}

	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(assignments)
	}

	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, middleware.RequireRole(identity.RoleTeacher))
		deps.ActivityHandler.Register(activity)
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// AnalyticsHandler exposes the grading summary of an assignment.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches analytics routes to the assignments group.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/:id/summary", middleware.WithAuth(h.summary, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
}

func (h *AnalyticsHandler) summary(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	summary, err := h.service.AssignmentSummary(requestContext(c), id, actor)
	if err != nil {
		return writeError(c, h.logger, err, "failed to load assignment summary")
	}

	return utils.SendSuccess(c, "assignment summary", summary)
}

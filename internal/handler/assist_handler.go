package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// AssistHandler serves advisory hints and grade suggestions.
type AssistHandler struct {
	service service.AssistService
	logger  zerolog.Logger
}

// NewAssistHandler constructs the handler.
func NewAssistHandler(service service.AssistService, logger zerolog.Logger) *AssistHandler {
	return &AssistHandler{
		service: service,
		logger:  logger.With().Str("component", "assist_handler").Logger(),
	}
}

// RegisterAssignmentRoutes attaches the hint route under /assignments.
func (h *AssistHandler) RegisterAssignmentRoutes(router fiber.Router, limit fiber.Handler) {
	router.Post("/:id/assist/hint", limit, middleware.WithAuth(h.hint, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
}

// RegisterSubmissionRoutes attaches the grade suggestion route under /submissions.
func (h *AssistHandler) RegisterSubmissionRoutes(router fiber.Router, limit fiber.Handler) {
	router.Post("/:id/assist/grade", limit, middleware.WithAuth(h.suggestGrade, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
}

func (h *AssistHandler) hint(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.HintRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	hint, err := h.service.Hint(requestContext(c), assignmentID, actor, payload)
	if err != nil {
		return writeError(c, h.logger, err, "failed to generate hint")
	}

	return utils.SendSuccess(c, "hint generated", hint)
}

func (h *AssistHandler) suggestGrade(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	suggestion, err := h.service.SuggestGrade(requestContext(c), submissionID, actor)
	if err != nil {
		return writeError(c, h.logger, err, "failed to suggest grade")
	}

	return utils.SendSuccess(c, "grade suggested", suggestion)
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

// ErrAssistUnavailable is returned when no assistant is configured.
var ErrAssistUnavailable = errors.New("assistant unavailable")

// AssistService exposes advisory hints and grade suggestions. Nothing it
// produces is persisted.
type AssistService interface {
	Hint(ctx context.Context, assignmentID uint, actor Actor, payload dto.HintRequest) (dto.HintResponse, error)
	SuggestGrade(ctx context.Context, submissionID uint, actor Actor) (dto.GradeSuggestionResponse, error)
}

type assistService struct {
	assistant   ai.Assistant
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewAssistService constructs the assist service.
func NewAssistService(assistant ai.Assistant, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) AssistService {
	return &assistService{
		assistant:   assistant,
		assignments: assignments,
		submissions: submissions,
		validator:   validate,
		tracer:      otel.Tracer("github.com/noah-isme/classroom-api/internal/service/assist"),
		logger:      logger.With().Str("component", "assist_service").Logger(),
	}
}

func (s *assistService) Hint(ctx context.Context, assignmentID uint, actor Actor, payload dto.HintRequest) (dto.HintResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assist.hint")
	span.SetAttributes(attribute.Int64("assist.assignment_id", int64(assignmentID)))
	defer span.End()

	if !actor.IsStudent() {
		return dto.HintResponse{}, s.fail(span, "hint", ErrForbidden)
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.HintResponse{}, s.fail(span, "hint", err)
	}
	if s.assistant == nil {
		return dto.HintResponse{}, s.fail(span, "hint", ErrAssistUnavailable)
	}

	assignment, err := loadAssignment(ctx, s.assignments, assignmentID)
	if err != nil {
		return dto.HintResponse{}, s.fail(span, "hint", err)
	}

	hint, err := s.assistant.Hint(ctx, ai.HintInput{
		AssignmentTitle:       assignment.Title,
		AssignmentDescription: assignment.Description,
		Draft:                 payload.Draft,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("hint generation failed")
		return dto.HintResponse{}, s.fail(span, "hint", err)
	}

	observability.AssistRequests().WithLabelValues("hint", "ok").Inc()
	return dto.HintResponse{Hint: strings.TrimSpace(hint)}, nil
}

func (s *assistService) SuggestGrade(ctx context.Context, submissionID uint, actor Actor) (dto.GradeSuggestionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assist.autograde")
	span.SetAttributes(attribute.Int64("assist.submission_id", int64(submissionID)))
	defer span.End()

	if !actor.IsTeacher() {
		return dto.GradeSuggestionResponse{}, s.fail(span, "autograde", ErrForbidden)
	}
	if s.assistant == nil {
		return dto.GradeSuggestionResponse{}, s.fail(span, "autograde", ErrAssistUnavailable)
	}

	submission, err := loadSubmission(ctx, s.submissions, submissionID)
	if err != nil {
		return dto.GradeSuggestionResponse{}, s.fail(span, "autograde", err)
	}

	maxScore := submission.Assignment.EffectiveMaxScore()
	suggestion, err := s.assistant.AutoGrade(ctx, ai.GradeInput{
		AssignmentTitle:       submission.Assignment.Title,
		AssignmentDescription: submission.Assignment.Description,
		MaxScore:              maxScore,
		SubmissionContent:     submission.Content,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("grade suggestion failed")
		return dto.GradeSuggestionResponse{}, s.fail(span, "autograde", err)
	}

	grade := suggestion.Grade
	if grade < 0 {
		grade = 0
	}
	if grade > maxScore {
		grade = maxScore
	}

	span.SetAttributes(attribute.Int("assist.suggested_grade", grade))
	observability.AssistRequests().WithLabelValues("autograde", "ok").Inc()
	return dto.GradeSuggestionResponse{Grade: grade, Feedback: strings.TrimSpace(suggestion.Feedback)}, nil
}

func (s *assistService) fail(span trace.Span, kind string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	observability.AssistRequests().WithLabelValues(kind, "error").Inc()
	return err
}

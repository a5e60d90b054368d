package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// GradingService records teacher grades.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.SubmissionGradeRequest, actor Actor) (dto.SubmissionResponse, error)
}

// GradingServiceDeps groups the collaborators of the grading service.
type GradingServiceDeps struct {
	Submissions repository.SubmissionRepository
	Validator   *validator.Validate
	Activity    ActivityRecorder
	Events      EventPublisher
	Cache       *redis.Client
	CacheTTL    time.Duration
	Logger      zerolog.Logger
}

type gradingService struct {
	repo      repository.SubmissionRepository
	validator *validator.Validate
	activity  ActivityRecorder
	events    EventPublisher
	roster    readCache
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(deps GradingServiceDeps) GradingService {
	serviceLogger := deps.Logger.With().Str("component", "grading_service").Logger()
	return &gradingService{
		repo:      deps.Submissions,
		validator: deps.Validator,
		activity:  deps.Activity,
		events:    deps.Events,
		roster:    newReadCache(deps.Cache, "roster", deps.CacheTTL, serviceLogger),
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/classroom-api/internal/service/grading"),
		logger:    serviceLogger,
		now:       time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.SubmissionGradeRequest, actor Actor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.update")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	fail := func(err error, status string) (dto.SubmissionResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		observability.Grades().WithLabelValues(status).Inc()
		return dto.SubmissionResponse{}, err
	}

	if !actor.IsTeacher() {
		return fail(ErrForbidden, "forbidden")
	}
	if err := s.validator.Struct(payload); err != nil {
		return fail(err, "validation_failed")
	}

	score, err := models.ScoreFromNumber(*payload.Grade)
	if err != nil {
		return fail(err, "validation_failed")
	}

	submission, err := loadSubmission(ctx, s.repo, submissionID)
	if err != nil {
		return fail(err, "submission_lookup_failed")
	}

	feedback := plainText(s.sanitizer, payload.Feedback)

	if submission.IsGraded() && submission.Grade != nil && *submission.Grade == score &&
		strings.TrimSpace(submission.Feedback) == feedback &&
		submission.GradedBy != nil && *submission.GradedBy == actor.ID {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		observability.Grades().WithLabelValues("unchanged").Inc()
		return dto.NewSubmissionResponse(submission), nil
	}

	gradedAt := s.now()
	if err := submission.ApplyGrade(score, feedback, submission.Assignment.EffectiveMaxScore(), actor.ID, gradedAt); err != nil {
		return fail(err, "grade_rejected")
	}

	if err := s.repo.Update(ctx, &submission); err != nil {
		return fail(err, "submission_update_failed")
	}

	history := models.SubmissionGradeHistory{
		SubmissionID: submission.ID,
		Score:        score,
		Feedback:     feedback,
		GradedBy:     actor.ID,
		GradedAt:     gradedAt,
	}
	if err := s.repo.CreateHistory(ctx, &history); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to persist grading history")
		span.RecordError(err)
	}

	s.roster.invalidate(ctx, rosterCacheKey(submission.AssignmentID), summaryCacheKey(submission.AssignmentID))

	recordQuietly(ctx, s.activity, s.logger, ActivityEntry{
		Actor:        actor,
		Action:       EventSubmissionGraded,
		AssignmentID: submission.AssignmentID,
		SubmissionID: &submission.ID,
		Metadata: map[string]interface{}{
			"student_id": submission.StudentID,
			"score":      score,
			"max_score":  submission.Assignment.EffectiveMaxScore(),
		},
	})
	publishQuietly(ctx, s.events, s.logger, SubmissionEvent{
		Type:         EventSubmissionGraded,
		AssignmentID: submission.AssignmentID,
		SubmissionID: submission.ID,
		StudentID:    submission.StudentID,
		Status:       submission.Status,
		Grade:        submission.Grade,
		ActorID:      actor.ID,
	})

	span.SetAttributes(
		attribute.Int("grading.score", score),
		attribute.String("grading.status", string(submission.Status)),
	)
	observability.Grades().WithLabelValues("graded").Inc()
	s.logger.Info().Uint("submission_id", submission.ID).Int("score", score).Msg("submission graded")

	return dto.NewSubmissionResponse(submission), nil
}

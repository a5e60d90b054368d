package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// AnalyticsService aggregates grading progress for teachers.
type AnalyticsService interface {
	AssignmentSummary(ctx context.Context, assignmentID uint, actor Actor) (dto.AssignmentSummaryResponse, error)
}

type analyticsService struct {
	repo        repository.AnalyticsRepository
	assignments repository.AssignmentRepository
	cache       readCache
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAnalyticsService constructs the analytics service. cache may be nil.
func NewAnalyticsService(repo repository.AnalyticsRepository, assignments repository.AssignmentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	serviceLogger := logger.With().Str("component", "analytics_service").Logger()
	return &analyticsService{
		repo:        repo,
		assignments: assignments,
		cache:       newReadCache(cache, "summary", ttl, serviceLogger),
		logger:      serviceLogger,
		now:         time.Now,
	}
}

func summaryCacheKey(assignmentID uint) string {
	return fmt.Sprintf("classroom:summary:%d", assignmentID)
}

func (s *analyticsService) AssignmentSummary(ctx context.Context, assignmentID uint, actor Actor) (dto.AssignmentSummaryResponse, error) {
	if !actor.IsTeacher() {
		return dto.AssignmentSummaryResponse{}, ErrForbidden
	}

	cacheKey := summaryCacheKey(assignmentID)
	tracer := otel.Tracer("github.com/noah-isme/classroom-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))
	defer span.End()

	var summary dto.AssignmentSummaryResponse
	if s.cache.get(ctx, cacheKey, &summary) {
		summary.CacheHit = true
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return summary, nil
	}

	assignment, err := loadAssignment(ctx, s.assignments, assignmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.AssignmentSummaryResponse{}, err
	}

	students, err := s.repo.CountStudents(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_students_failed")
		return dto.AssignmentSummaryResponse{}, err
	}

	submissions, err := s.repo.ListSubmissions(ctx, assignmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_submissions_failed")
		return dto.AssignmentSummaryResponse{}, err
	}

	summary = s.buildSummary(assignment, students, submissions)
	span.SetAttributes(
		attribute.Int64("analytics.students", students),
		attribute.Int("analytics.submission_count", len(submissions)),
	)

	s.cache.set(ctx, cacheKey, summary)
	return summary, nil
}

func (s *analyticsService) buildSummary(assignment models.Assignment, students int64, submissions []models.Submission) dto.AssignmentSummaryResponse {
	maxScore := assignment.EffectiveMaxScore()
	summary := dto.AssignmentSummaryResponse{
		AssignmentID: assignment.ID,
		MaxScore:     maxScore,
		Students:     students,
		GradeDistribution: dto.GradeDistributionResponse{
			"90-100": 0,
			"75-89":  0,
			"60-74":  0,
			"0-59":   0,
		},
		GeneratedAt: s.now(),
	}

	total := 0
	for _, submission := range submissions {
		if submission.SubmittedAt != nil && !assignment.DueDate.IsZero() {
			if submission.SubmittedAt.After(assignment.DueDate) {
				summary.LateSubmissions++
			} else {
				summary.OnTimeSubmissions++
			}
		}

		if !submission.IsGraded() || submission.Grade == nil {
			summary.NeedsGrading++
			continue
		}

		summary.Graded++
		total += *submission.Grade
		percent := float64(*submission.Grade) / float64(maxScore) * 100
		switch {
		case percent >= 90:
			summary.GradeDistribution["90-100"]++
		case percent >= 75:
			summary.GradeDistribution["75-89"]++
		case percent >= 60:
			summary.GradeDistribution["60-74"]++
		default:
			summary.GradeDistribution["0-59"]++
		}
	}

	if summary.Graded > 0 {
		average := float64(total) / float64(summary.Graded)
		summary.AverageGrade = &average
	}

	if unsubmitted := students - int64(len(submissions)); unsubmitted > 0 {
		summary.Unsubmitted = unsubmitted
	}

	return summary
}

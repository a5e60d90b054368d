package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// SubmissionService orchestrates turn-in workflows.
type SubmissionService interface {
	ListForAssignment(ctx context.Context, assignmentID uint, actor Actor) ([]dto.SubmissionResponse, error)
	Submit(ctx context.Context, assignmentID uint, actor Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	History(ctx context.Context, submissionID uint) ([]dto.SubmissionGradeHistoryResponse, error)
}

// SubmissionServiceDeps groups the collaborators of the submission service.
type SubmissionServiceDeps struct {
	Submissions repository.SubmissionRepository
	Assignments repository.AssignmentRepository
	Validator   *validator.Validate
	Activity    ActivityRecorder
	Events      EventPublisher
	Cache       *redis.Client
	CacheTTL    time.Duration
	Logger      zerolog.Logger
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	events      EventPublisher
	roster      readCache
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(deps SubmissionServiceDeps) SubmissionService {
	serviceLogger := deps.Logger.With().Str("component", "submission_service").Logger()
	return &submissionService{
		submissions: deps.Submissions,
		assignments: deps.Assignments,
		validator:   deps.Validator,
		activity:    deps.Activity,
		events:      deps.Events,
		roster:      newReadCache(deps.Cache, "roster", deps.CacheTTL, serviceLogger),
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      serviceLogger,
		now:         time.Now,
	}
}

func rosterCacheKey(assignmentID uint) string {
	return fmt.Sprintf("classroom:roster:%d", assignmentID)
}

// ListForAssignment returns the roster in id order. Students only see their own record.
func (s *submissionService) ListForAssignment(ctx context.Context, assignmentID uint, actor Actor) ([]dto.SubmissionResponse, error) {
	var roster []dto.SubmissionResponse
	if !s.roster.get(ctx, rosterCacheKey(assignmentID), &roster) {
		if _, err := loadAssignment(ctx, s.assignments, assignmentID); err != nil {
			return nil, err
		}

		submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
		if err != nil {
			return nil, err
		}
		roster = dto.NewSubmissionResponseSlice(submissions)
		s.roster.set(ctx, rosterCacheKey(assignmentID), roster)
	}

	if actor.IsTeacher() {
		return roster, nil
	}

	own := make([]dto.SubmissionResponse, 0, 1)
	for _, submission := range roster {
		if submission.StudentID == actor.ID {
			own = append(own, submission)
		}
	}
	return own, nil
}

// Submit creates the student's record or overwrites it while it is ungraded.
func (s *submissionService) Submit(ctx context.Context, assignmentID uint, actor Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if !actor.IsStudent() {
		return dto.SubmissionResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Content is stored as typed; markup-only input counts as blank.
	content := strings.TrimSpace(payload.Content)
	if plainText(s.sanitizer, content) == "" {
		observability.Submissions().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, models.ErrEmptyContent
	}

	if _, err := loadAssignment(ctx, s.assignments, assignmentID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	saved, action, err := s.upsert(ctx, assignmentID, actor.ID, content)
	if err != nil {
		if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrInvalidState) {
			observability.Submissions().WithLabelValues("rejected").Inc()
		}
		return dto.SubmissionResponse{}, err
	}

	observability.Submissions().WithLabelValues(strings.TrimPrefix(action, "submission.")).Inc()
	s.roster.invalidate(ctx, rosterCacheKey(assignmentID), summaryCacheKey(assignmentID))

	recordQuietly(ctx, s.activity, s.logger, ActivityEntry{
		Actor:        actor,
		Action:       action,
		AssignmentID: assignmentID,
		SubmissionID: &saved.ID,
		Metadata:     map[string]interface{}{"content_length": len(content)},
	})
	publishQuietly(ctx, s.events, s.logger, SubmissionEvent{
		Type:         action,
		AssignmentID: assignmentID,
		SubmissionID: saved.ID,
		StudentID:    saved.StudentID,
		Status:       saved.Status,
		ActorID:      actor.ID,
	})

	s.logger.Info().Uint("submission_id", saved.ID).Uint("student_id", actor.ID).Str("action", action).Msg("submission stored")

	return dto.NewSubmissionResponse(saved), nil
}

func (s *submissionService) upsert(ctx context.Context, assignmentID, studentID uint, content string) (models.Submission, string, error) {
	now := s.now()

	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, err := models.NewSubmission(assignmentID, studentID, content, now)
		if err != nil {
			return models.Submission{}, "", err
		}
		err = s.submissions.Create(ctx, &created)
		if err == nil {
			reloaded, err := s.submissions.GetByID(ctx, created.ID)
			if err != nil {
				return models.Submission{}, "", err
			}
			return reloaded, EventSubmissionCreated, nil
		}
		if !errors.Is(err, repository.ErrSubmissionExists) {
			return models.Submission{}, "", err
		}
		// A concurrent turn-in created the record first; overwrite it instead.
		existing, err = s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
		if err != nil {
			return models.Submission{}, "", err
		}
	case err != nil:
		return models.Submission{}, "", err
	}

	if err := existing.Resubmit(content, now); err != nil {
		return models.Submission{}, "", err
	}
	if err := s.submissions.Update(ctx, &existing); err != nil {
		return models.Submission{}, "", err
	}
	return existing, EventSubmissionResubmitted, nil
}

func (s *submissionService) History(ctx context.Context, submissionID uint) ([]dto.SubmissionGradeHistoryResponse, error) {
	if _, err := loadSubmission(ctx, s.submissions, submissionID); err != nil {
		return nil, err
	}

	history, err := s.submissions.ListHistory(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return dto.NewGradeHistoryResponseSlice(history), nil
}

func loadSubmission(ctx context.Context, repo repository.SubmissionRepository, id uint) (models.Submission, error) {
	submission, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, fmt.Errorf("%w: submission %d", models.ErrNotFound, id)
		}
		return models.Submission{}, err
	}
	return submission, nil
}

// plainText strips markup with the policy and returns the visible text unescaped.
func plainText(policy *bluemonday.Policy, raw string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(raw)))
}

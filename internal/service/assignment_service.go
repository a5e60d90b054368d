package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// AssignmentService exposes assignment lookups.
type AssignmentService interface {
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	List(ctx context.Context, courseID *uint) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	repo   repository.AssignmentRepository
	cache  readCache
	logger zerolog.Logger
	now    func() time.Time
}

// NewAssignmentService builds a new assignment service. cache may be nil.
func NewAssignmentService(repo repository.AssignmentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AssignmentService {
	serviceLogger := logger.With().Str("component", "assignment_service").Logger()
	return &assignmentService{
		repo:   repo,
		cache:  newReadCache(cache, "assignment", ttl, serviceLogger),
		logger: serviceLogger,
		now:    time.Now,
	}
}

func assignmentCacheKey(id uint) string {
	return fmt.Sprintf("classroom:assignment:%d", id)
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	var assignment models.Assignment
	if !s.cache.get(ctx, assignmentCacheKey(id), &assignment) {
		loaded, err := loadAssignment(ctx, s.repo, id)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment = loaded
		s.cache.set(ctx, assignmentCacheKey(id), assignment)
	}

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) List(ctx context.Context, courseID *uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.List(ctx, courseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, dto.NewAssignmentResponse(assignment, now))
	}
	return responses, nil
}

func loadAssignment(ctx context.Context, repo repository.AssignmentRepository, id uint) (models.Assignment, error) {
	assignment, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, fmt.Errorf("%w: assignment %d", models.ErrNotFound, id)
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

const (
	seedMathCourseID    uint = 1
	seedScienceCourseID uint = 2
)

// SeedResult lists the demo records present after seeding.
type SeedResult struct {
	Users       []models.User
	Assignments []models.Assignment
	Submissions int
}

// SeedService loads demo classroom data.
type SeedService interface {
	Seed(ctx context.Context) (SeedResult, error)
}

type seedService struct {
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, logger zerolog.Logger) SeedService {
	return &seedService{
		users:       users,
		assignments: assignments,
		submissions: submissions,
		logger:      logger.With().Str("component", "seed_service").Logger(),
		now:         time.Now,
	}
}

// Seed upserts the demo users and creates the demo assignments when absent.
// Running it twice leaves the data unchanged.
func (s *seedService) Seed(ctx context.Context) (SeedResult, error) {
	now := s.now()
	users := []models.User{
		{Username: "teacher_math", FullName: "Mr. Anderson", Role: identity.RoleTeacher.String()},
		{Username: "teacher_science", FullName: "Ms. Frizzle", Role: identity.RoleTeacher.String()},
		{Username: "student1", FullName: "Timmy Turner", Role: identity.RoleStudent.String()},
		{Username: "student2", FullName: "Jimmy Neutron", Role: identity.RoleStudent.String()},
	}
	for i := range users {
		if err := s.users.Upsert(ctx, &users[i]); err != nil {
			return SeedResult{}, fmt.Errorf("seed user %s: %w", users[i].Username, err)
		}
	}
	teacherMath, timmy, jimmy := users[0], users[2], users[3]

	homework, err := s.ensureAssignment(ctx, models.Assignment{
		CourseID:    seedMathCourseID,
		Title:       "Homework 1: Add Fractions",
		Description: "Solve page 10-12 in your textbook.",
		MaxScore:    100,
		DueDate:     now.AddDate(0, 0, 7),
	})
	if err != nil {
		return SeedResult{}, err
	}
	quiz, err := s.ensureAssignment(ctx, models.Assignment{
		CourseID:    seedScienceCourseID,
		Title:       "Quiz: Photosynthesis Basics",
		Description: "Explain the role of Chlorophyll in 3 sentences.",
		MaxScore:    10,
		DueDate:     now.AddDate(0, 0, 3),
	})
	if err != nil {
		return SeedResult{}, err
	}

	submitted, err := models.NewSubmission(homework.ID, timmy.ID, "1/2 + 1/4 = 3/4. I think this is correct.", now)
	if err != nil {
		return SeedResult{}, err
	}
	graded, err := models.NewSubmission(homework.ID, jimmy.ID, "1/2 + 1/4 = 2/6", now.Add(-2*time.Hour))
	if err != nil {
		return SeedResult{}, err
	}
	if err := graded.ApplyGrade(50, "Remember to find the common denominator!", homework.EffectiveMaxScore(), teacherMath.ID, now); err != nil {
		return SeedResult{}, err
	}

	created := 0
	for _, submission := range []models.Submission{submitted, graded} {
		record := submission
		err := s.submissions.Create(ctx, &record)
		switch {
		case err == nil:
			created++
		case errors.Is(err, repository.ErrSubmissionExists):
		default:
			return SeedResult{}, fmt.Errorf("seed submission for student %d: %w", record.StudentID, err)
		}
	}

	s.logger.Info().
		Int("users", len(users)).
		Int("submissions_created", created).
		Msg("demo data seeded")

	return SeedResult{
		Users:       users,
		Assignments: []models.Assignment{homework, quiz},
		Submissions: created,
	}, nil
}

func (s *seedService) ensureAssignment(ctx context.Context, assignment models.Assignment) (models.Assignment, error) {
	courseID := assignment.CourseID
	existing, err := s.assignments.List(ctx, &courseID)
	if err != nil {
		return models.Assignment{}, err
	}
	for _, candidate := range existing {
		if candidate.Title == assignment.Title {
			return candidate, nil
		}
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return models.Assignment{}, fmt.Errorf("seed assignment %q: %w", assignment.Title, err)
	}
	return assignment, nil
}

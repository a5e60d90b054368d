package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

type gradingHarness struct {
	fixture    classroomFixture
	repo       repository.SubmissionRepository
	events     *recordingEvents
	activity   *recordingActivity
	svc        *gradingService
	submission models.Submission
}

func newGradingHarness(t *testing.T) gradingHarness {
	t.Helper()
	db := setupServiceDB(t)
	fixture := seedClassroom(t, db)
	repo := repository.NewSubmissionRepository(db)

	submission, err := models.NewSubmission(fixture.assignment.ID, fixture.studentA.ID, "42 + 8 = 50", time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &submission))

	events := &recordingEvents{}
	activity := &recordingActivity{}
	svc := NewGradingService(GradingServiceDeps{
		Submissions: repo,
		Validator:   validator.New(validator.WithRequiredStructEnabled()),
		Activity:    activity,
		Events:      events,
		Logger:      testLogger(),
	}).(*gradingService)
	svc.now = func() time.Time { return time.Date(2025, 3, 6, 10, 0, 0, 0, time.UTC) }

	return gradingHarness{fixture: fixture, repo: repo, events: events, activity: activity, svc: svc, submission: submission}
}

func TestGradingServiceGradeStoresScoreAndHistory(t *testing.T) {
	h := newGradingHarness(t)
	ctx := context.Background()

	graded, err := h.svc.Grade(ctx, h.submission.ID, dto.SubmissionGradeRequest{Grade: ptrFloat(95), Feedback: " Correct "}, h.fixture.teacherActor())
	require.NoError(t, err)
	require.Equal(t, "graded", graded.Status)
	require.NotNil(t, graded.Grade)
	require.Equal(t, 95, *graded.Grade)
	require.Equal(t, "Correct", graded.Feedback)
	require.NotNil(t, graded.GradedBy)
	require.Equal(t, h.fixture.teacher.ID, *graded.GradedBy)

	history, err := h.repo.ListHistory(ctx, h.submission.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, 95, history[0].Score)

	require.Len(t, h.events.events, 1)
	require.Equal(t, EventSubmissionGraded, h.events.events[0].Type)
	require.Len(t, h.activity.entries, 1)
	require.Equal(t, 95, h.activity.entries[0].Metadata["score"])
}

func TestGradingServiceRegradeOverwritesAndSameGradeIsNoop(t *testing.T) {
	h := newGradingHarness(t)
	ctx := context.Background()
	teacher := h.fixture.teacherActor()

	_, err := h.svc.Grade(ctx, h.submission.ID, dto.SubmissionGradeRequest{Grade: ptrFloat(60), Feedback: "Check step two"}, teacher)
	require.NoError(t, err)
	regraded, err := h.svc.Grade(ctx, h.submission.ID, dto.SubmissionGradeRequest{Grade: ptrFloat(80), Feedback: "Better"}, teacher)
	require.NoError(t, err)
	require.Equal(t, 80, *regraded.Grade)
	require.Equal(t, "Better", regraded.Feedback)

	_, err = h.svc.Grade(ctx, h.submission.ID, dto.SubmissionGradeRequest{Grade: ptrFloat(80), Feedback: "Better"}, teacher)
	require.NoError(t, err)

	history, err := h.repo.ListHistory(ctx, h.submission.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, 80, history[0].Score)
	require.Len(t, h.events.events, 2)
}

func TestGradingServiceZeroIsAValidGrade(t *testing.T) {
	h := newGradingHarness(t)

	graded, err := h.svc.Grade(context.Background(), h.submission.ID, dto.SubmissionGradeRequest{Grade: ptrFloat(0)}, h.fixture.teacherActor())
	require.NoError(t, err)
	require.Equal(t, 0, *graded.Grade)
}

func TestGradingServiceRejectsInvalidRequests(t *testing.T) {
	h := newGradingHarness(t)
	ctx := context.Background()
	teacher := h.fixture.teacherActor()

	cases := []struct {
		name    string
		id      uint
		payload dto.SubmissionGradeRequest
		actor   Actor
		target  error
	}{
		{name: "student actor", id: h.submission.ID, payload: dto.SubmissionGradeRequest{Grade: ptrFloat(90)}, actor: h.fixture.studentActor(h.fixture.studentA), target: ErrForbidden},
		{name: "above max", id: h.submission.ID, payload: dto.SubmissionGradeRequest{Grade: ptrFloat(101)}, actor: teacher, target: models.ErrScoreOutOfRange},
		{name: "negative", id: h.submission.ID, payload: dto.SubmissionGradeRequest{Grade: ptrFloat(-1)}, actor: teacher, target: models.ErrScoreOutOfRange},
		{name: "fractional", id: h.submission.ID, payload: dto.SubmissionGradeRequest{Grade: ptrFloat(92.5)}, actor: teacher, target: models.ErrScoreNotInteger},
		{name: "unknown submission", id: 999, payload: dto.SubmissionGradeRequest{Grade: ptrFloat(90)}, actor: teacher, target: models.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Grade(ctx, tc.id, tc.payload, tc.actor)
			require.ErrorIs(t, err, tc.target)
		})
	}

	_, err := h.svc.Grade(ctx, h.submission.ID, dto.SubmissionGradeRequest{}, teacher)
	require.Error(t, err)

	stored, err := h.repo.GetByID(ctx, h.submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
	require.Nil(t, stored.Grade)
	require.Empty(t, h.events.events)
}

func TestGradingServiceStripsMarkupFromFeedback(t *testing.T) {
	h := newGradingHarness(t)

	graded, err := h.svc.Grade(context.Background(), h.submission.ID, dto.SubmissionGradeRequest{Grade: ptrFloat(70), Feedback: "<b>Nice</b> work<script>alert(1)</script>"}, h.fixture.teacherActor())
	require.NoError(t, err)
	require.Equal(t, "Nice work", graded.Feedback)
}

func TestGradingServiceKeepsComparisonsInFeedback(t *testing.T) {
	h := newGradingHarness(t)

	graded, err := h.svc.Grade(context.Background(), h.submission.ID, dto.SubmissionGradeRequest{Grade: ptrFloat(70), Feedback: "Check 1/2 < 3/4 & x > 0"}, h.fixture.teacherActor())
	require.NoError(t, err)
	require.Equal(t, "Check 1/2 < 3/4 & x > 0", graded.Feedback)
}

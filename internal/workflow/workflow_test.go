package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

const (
	teacherID uint = 1
	studentA  uint = 3
	studentB  uint = 4
)

func newTestWorkflow(backend *memoryBackend, ident identity.Context, deps ...func(*Dependencies)) *AssignmentWorkflow {
	d := Dependencies{
		Identity: ident,
		Backend:  backend,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC) },
	}
	for _, apply := range deps {
		apply(&d)
	}
	return New(backend.assignment.ID, d)
}

func loadStudent(t *testing.T, backend *memoryBackend, studentID uint) (*AssignmentWorkflow, *StudentSurface) {
	t.Helper()
	wf := newTestWorkflow(backend, identity.NewStatic(studentID, identity.RoleStudent))
	_, err := wf.Load(context.Background())
	require.NoError(t, err)
	surface, err := wf.Student()
	require.NoError(t, err)
	return wf, surface
}

func loadTeacher(t *testing.T, backend *memoryBackend) (*AssignmentWorkflow, *TeacherSurface) {
	t.Helper()
	wf := newTestWorkflow(backend, identity.NewStatic(teacherID, identity.RoleTeacher))
	_, err := wf.Load(context.Background())
	require.NoError(t, err)
	surface, err := wf.Teacher()
	require.NoError(t, err)
	return wf, surface
}

func TestSubmitThenGradeRoundTrip(t *testing.T) {
	backend := newMemoryBackend(testAssignment())
	ctx := context.Background()

	_, student := loadStudent(t, backend, studentA)
	saved, err := student.TurnIn(ctx, "42 + 8 = 50")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, saved.Status)
	require.Equal(t, "Submitted", student.StatusBadge())
	require.Equal(t, "Resubmit", student.TurnInLabel())

	_, teacher := loadTeacher(t, backend)
	roster := teacher.Roster()
	require.Len(t, roster, 1)
	require.Equal(t, "Needs Grading", teacher.RosterLabel(roster[0]))

	session, err := teacher.SelectSubmission(roster[0].ID)
	require.NoError(t, err)
	require.NoError(t, session.StageGrade(95))
	require.NoError(t, session.StageFeedback("Correct"))
	graded, err := teacher.SaveGrade(ctx)
	require.NoError(t, err)
	require.Equal(t, 95, *graded.Grade)
	require.Nil(t, teacher.Session())
	require.Equal(t, "95 / 100", teacher.RosterLabel(teacher.Roster()[0]))

	_, student = loadStudent(t, backend, studentA)
	require.Equal(t, models.SubmissionStatusGraded, student.Status())
	require.True(t, student.ReadOnly())
	require.False(t, student.CanTurnIn())
	require.Equal(t, "Graded: 95/100", student.StatusBadge())
	require.Equal(t, "Correct", student.Feedback())
	require.Equal(t, "42 + 8 = 50", student.Draft())

	require.ErrorIs(t, student.SetDraft("changed"), models.ErrInvalidState)
	_, err = student.TurnIn(ctx, "changed")
	require.ErrorIs(t, err, models.ErrInvalidState)
	require.Equal(t, KindInvalidState, student.Notice().Kind)
	require.Equal(t, 1, backend.submitCalls)
}

func TestFreshStudentSeesEmptyDraft(t *testing.T) {
	backend := newMemoryBackend(testAssignment())
	backend.seed(studentB, "someone else's work")

	_, student := loadStudent(t, backend, studentA)
	require.Equal(t, "", student.Draft())
	require.Equal(t, models.SubmissionStatusUnsubmitted, student.Status())
	require.Equal(t, "Turn In", student.TurnInLabel())
	require.Equal(t, "Assigned", student.StatusBadge())
	require.True(t, student.CanTurnIn())
	require.Equal(t, "", student.Feedback())
	require.Nil(t, student.Notice())
}

func TestSelectingAnotherSubmissionDiscardsStagedGrade(t *testing.T) {
	backend := newMemoryBackend(testAssignment())
	a := backend.seed(studentA, "answer A")
	b := backend.seed(studentB, "answer B")

	_, teacher := loadTeacher(t, backend)
	first, err := teacher.SelectSubmission(a.ID)
	require.NoError(t, err)
	require.NoError(t, first.StageGrade(80))

	second, err := teacher.SelectSubmission(b.ID)
	require.NoError(t, err)
	require.False(t, first.IsOpen())
	require.Same(t, second, teacher.Session())
	require.Equal(t, 0, second.StagedGrade())

	current, ok := backend.findByStudent(studentA)
	require.True(t, ok)
	require.Nil(t, current.Grade)
	require.Equal(t, 0, backend.gradeCalls)

	_, err = teacher.SelectSubmission(404)
	require.ErrorIs(t, err, models.ErrNotFound)
	require.Equal(t, KindNotFound, teacher.Notice().Kind)
}

func TestTurnInFailureKeepsDraft(t *testing.T) {
	backend := newMemoryBackend(testAssignment())
	_, student := loadStudent(t, backend, studentA)

	backend.submitErr = fmt.Errorf("%w: 503 service unavailable", ErrTransport)
	_, err := student.TurnIn(context.Background(), "my careful answer")
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, "my careful answer", student.Draft())
	require.Equal(t, models.SubmissionStatusUnsubmitted, student.Status())
	require.Equal(t, KindTransport, student.Notice().Kind)
	require.False(t, student.Pending())

	backend.submitErr = nil
	saved, err := student.TurnIn(context.Background(), student.Draft())
	require.NoError(t, err)
	require.Equal(t, "my careful answer", saved.Content)
	require.Nil(t, student.Notice())
}

func TestTurnInRejectsBlankContent(t *testing.T) {
	backend := newMemoryBackend(testAssignment())
	_, student := loadStudent(t, backend, studentA)

	_, err := student.TurnIn(context.Background(), "   ")
	require.ErrorIs(t, err, models.ErrValidation)
	require.Equal(t, KindValidation, student.Notice().Kind)
	require.Equal(t, 0, backend.submitCalls)
}

func TestConcurrentTurnInIsRejectedWhilePending(t *testing.T) {
	backend := newMemoryBackend(testAssignment())
	_, student := loadStudent(t, backend, studentA)

	backend.submitStarted = make(chan struct{})
	backend.submitRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := student.TurnIn(context.Background(), "first")
		done <- err
	}()

	<-backend.submitStarted
	require.True(t, student.Pending())
	require.False(t, student.CanTurnIn())
	require.Equal(t, "Submitting...", student.TurnInLabel())

	_, err := student.TurnIn(context.Background(), "second")
	require.ErrorIs(t, err, ErrBusy)
	require.Equal(t, "first", student.Draft())

	require.NoError(t, student.SetDraft("second, improved answer"))

	close(backend.submitRelease)
	require.NoError(t, <-done)
	require.False(t, student.Pending())
	require.Equal(t, 1, backend.submitCalls)
	require.Equal(t, "first", student.Submission().Content)
	require.Equal(t, "second, improved answer", student.Draft())
}

func TestLoadRequiresIdentity(t *testing.T) {
	backend := newMemoryBackend(testAssignment())

	wf := newTestWorkflow(backend, identity.Anonymous())
	surface, err := wf.Load(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Nil(t, surface)
	require.Nil(t, wf.Surface())
	require.Equal(t, KindUnauthenticated, wf.Notice().Kind)

	wf = newTestWorkflow(backend, nil)
	_, err = wf.Load(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLoadFailures(t *testing.T) {
	backend := newMemoryBackend(testAssignment())

	wf := New(999, Dependencies{Identity: identity.NewStatic(studentA, identity.RoleStudent), Backend: backend, Logger: zerolog.Nop()})
	_, err := wf.Load(context.Background())
	require.ErrorIs(t, err, models.ErrNotFound)
	require.Equal(t, KindNotFound, wf.Notice().Kind)

	wf = newTestWorkflow(backend, identity.NewStatic(studentA, identity.RoleStudent))
	first, err := wf.Load(context.Background())
	require.NoError(t, err)

	backend.loadErr = errors.New("connection refused")
	_, err = wf.Load(context.Background())
	require.Error(t, err)
	require.Equal(t, KindTransport, wf.Notice().Kind)
	require.Same(t, first, wf.Surface())
}

func TestRoleGating(t *testing.T) {
	backend := newMemoryBackend(testAssignment())

	studentWF, _ := loadStudent(t, backend, studentA)
	_, err := studentWF.Teacher()
	require.ErrorIs(t, err, ErrWrongRole)

	teacherWF, _ := loadTeacher(t, backend)
	_, err = teacherWF.Student()
	require.ErrorIs(t, err, ErrWrongRole)

	wf := newTestWorkflow(backend, identity.NewStatic(9, identity.Role("admin")))
	_, err = wf.Load(context.Background())
	require.ErrorIs(t, err, ErrWrongRole)
}

func TestStudentHint(t *testing.T) {
	backend := newMemoryBackend(testAssignment())

	wf := newTestWorkflow(backend, identity.NewStatic(studentA, identity.RoleStudent), func(d *Dependencies) {
		d.Assist = stubAssistant{hint: "Find a common denominator first."}
	})
	_, err := wf.Load(context.Background())
	require.NoError(t, err)
	student, err := wf.Student()
	require.NoError(t, err)
	require.Equal(t, "Find a common denominator first.", student.RequestHint(context.Background()))
	require.Equal(t, "Find a common denominator first.", student.Hint())
	require.Equal(t, 0, backend.submitCalls)

	wf = newTestWorkflow(backend, identity.NewStatic(studentA, identity.RoleStudent), func(d *Dependencies) {
		d.Assist = stubAssistant{hintErr: errors.New("model offline")}
	})
	_, err = wf.Load(context.Background())
	require.NoError(t, err)
	student, _ = wf.Student()
	require.Equal(t, NoHintAvailable, student.RequestHint(context.Background()))

	_, student = loadStudent(t, backend, studentA)
	require.Equal(t, NoHintAvailable, student.RequestHint(context.Background()))
}

func TestTeacherAutoGradeAndSaveFailure(t *testing.T) {
	backend := newMemoryBackend(testAssignment())
	seeded := backend.seed(studentA, "1/2 + 1/4 = 3/4")

	wf := newTestWorkflow(backend, identity.NewStatic(teacherID, identity.RoleTeacher), func(d *Dependencies) {
		d.Assist = stubAssistant{suggestion: ai.GradeSuggestion{Grade: 85, Feedback: "Good work! Your answer shows understanding."}}
	})
	_, err := wf.Load(context.Background())
	require.NoError(t, err)
	teacher, err := wf.Teacher()
	require.NoError(t, err)

	require.ErrorIs(t, teacher.AutoGrade(context.Background()), ErrSessionClosed)
	_, err = teacher.SaveGrade(context.Background())
	require.ErrorIs(t, err, ErrSessionClosed)

	_, err = teacher.SelectSubmission(seeded.ID)
	require.NoError(t, err)
	require.NoError(t, teacher.AutoGrade(context.Background()))
	require.Equal(t, 85, teacher.Session().StagedGrade())

	backend.gradeErr = fmt.Errorf("%w: timeout", ErrTransport)
	_, err = teacher.SaveGrade(context.Background())
	require.ErrorIs(t, err, ErrTransport)
	require.NotNil(t, teacher.Session())
	require.True(t, teacher.Session().IsOpen())
	require.Equal(t, "Needs Grading", teacher.RosterLabel(teacher.Roster()[0]))

	backend.gradeErr = nil
	saved, err := teacher.SaveGrade(context.Background())
	require.NoError(t, err)
	require.Equal(t, 85, *saved.Grade)
	require.Equal(t, "85 / 100", teacher.RosterLabel(teacher.Roster()[0]))
}

func TestCancelGrading(t *testing.T) {
	backend := newMemoryBackend(testAssignment())
	seeded := backend.seed(studentA, "answer")
	_, teacher := loadTeacher(t, backend)

	session, err := teacher.SelectSubmission(seeded.ID)
	require.NoError(t, err)
	teacher.CancelGrading()
	require.Nil(t, teacher.Session())
	require.False(t, session.IsOpen())
}

func TestOverdueStillAcceptsWork(t *testing.T) {
	assignment := testAssignment()
	assignment.DueDate = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	backend := newMemoryBackend(assignment)

	_, student := loadStudent(t, backend, studentA)
	require.True(t, student.Overdue())
	_, err := student.TurnIn(context.Background(), "late but done")
	require.NoError(t, err)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{models.ErrEmptyContent, KindValidation},
		{models.ErrScoreOutOfRange, KindValidation},
		{models.ErrNotFound, KindNotFound},
		{models.ErrSubmissionGraded, KindInvalidState},
		{ErrBusy, KindInvalidState},
		{ErrUnauthenticated, KindUnauthenticated},
		{ErrTransport, KindTransport},
		{errors.New("socket closed"), KindTransport},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, Classify(tc.err), "error %v", tc.err)
	}
	require.Equal(t, "invalid_state", KindInvalidState.String())
}

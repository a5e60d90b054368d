package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

// NoHintAvailable is shown when the assistant cannot produce a hint.
const NoHintAvailable = "No hint available right now."

// Surface is the role-specific view of an assignment.
type Surface interface {
	Role() identity.Role
	Assignment() models.Assignment
	Overdue() bool
	Pending() bool
	Notice() *Notice
}

type surfaceDeps struct {
	store  *SubmissionStore
	guard  *actionGuard
	assist ai.Assistant
	now    func() time.Time
	logger zerolog.Logger
}

type surfaceBase struct {
	surfaceDeps

	mu     sync.Mutex
	notice *Notice
}

// Assignment returns the loaded assignment.
func (b *surfaceBase) Assignment() models.Assignment {
	return b.store.Assignment()
}

// Overdue reports whether the due date has passed. Late work is still accepted.
func (b *surfaceBase) Overdue() bool {
	return b.store.Assignment().IsPastDue(b.now())
}

// Pending reports whether a write is in flight; triggering controls are disabled meanwhile.
func (b *surfaceBase) Pending() bool {
	return b.guard.pending()
}

// Notice returns the outcome of the last failed action, if any.
func (b *surfaceBase) Notice() *Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice
}

func (b *surfaceBase) setNotice(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = noticeFor(err)
}

// StudentSurface is the work surface of a student.
type StudentSurface struct {
	surfaceBase
	studentID uint
	draft     string
	hint      string
}

func newStudentSurface(deps surfaceDeps, studentID uint) *StudentSurface {
	surface := &StudentSurface{surfaceBase: surfaceBase{surfaceDeps: deps}, studentID: studentID}
	if own, ok := deps.store.FindByStudent(studentID); ok {
		surface.draft = own.Content
	}
	return surface
}

// Role implements Surface.
func (s *StudentSurface) Role() identity.Role {
	return identity.RoleStudent
}

// Submission returns the student's submission or the unsubmitted placeholder.
func (s *StudentSurface) Submission() models.Submission {
	if own, ok := s.store.FindByStudent(s.studentID); ok {
		return own
	}
	return models.Unsubmitted(s.store.Assignment().ID, s.studentID)
}

// Status returns the student's lifecycle state.
func (s *StudentSurface) Status() models.SubmissionStatus {
	return s.store.StatusOf(s.studentID)
}

// ReadOnly reports whether the work is frozen by grading.
func (s *StudentSurface) ReadOnly() bool {
	return s.Status() == models.SubmissionStatusGraded
}

// Draft returns the answer being edited.
func (s *StudentSurface) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft edits the answer. Graded work cannot be edited.
func (s *StudentSurface) SetDraft(text string) error {
	if s.ReadOnly() {
		return models.ErrSubmissionGraded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
	return nil
}

// CanTurnIn reports whether the turn-in control is enabled.
func (s *StudentSurface) CanTurnIn() bool {
	return !s.ReadOnly() && !s.Pending()
}

// TurnInLabel is the caption of the turn-in control.
func (s *StudentSurface) TurnInLabel() string {
	switch {
	case s.Pending():
		return "Submitting..."
	case s.Status() == models.SubmissionStatusUnsubmitted:
		return "Turn In"
	default:
		return "Resubmit"
	}
}

// StatusBadge summarises the submission state.
func (s *StudentSurface) StatusBadge() string {
	submission := s.Submission()
	switch submission.Status {
	case models.SubmissionStatusGraded:
		return fmt.Sprintf("Graded: %d/%d", *submission.Grade, s.store.Assignment().EffectiveMaxScore())
	case models.SubmissionStatusSubmitted:
		return "Submitted"
	default:
		return "Assigned"
	}
}

// Feedback returns the teacher's feedback once graded.
func (s *StudentSurface) Feedback() string {
	submission := s.Submission()
	if !submission.IsGraded() {
		return ""
	}
	return submission.Feedback
}

// Hint returns the last hint produced by RequestHint.
func (s *StudentSurface) Hint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hint
}

// RequestHint asks the assistant for a hint. The hint is never persisted and a
// failure degrades to NoHintAvailable.
func (s *StudentSurface) RequestHint(ctx context.Context) string {
	hint := NoHintAvailable
	if s.assist != nil {
		assignment := s.store.Assignment()
		result, err := s.assist.Hint(ctx, ai.HintInput{
			AssignmentID:          assignment.ID,
			AssignmentTitle:       assignment.Title,
			AssignmentDescription: assignment.Description,
			Draft:                 s.Draft(),
		})
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("hint request failed")
		case result != "":
			hint = result
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hint = hint
	return hint
}

// TurnIn submits content. The draft keeps the content whether or not the
// backend accepts it, so a failed attempt can be retried unchanged. A call
// rejected while another is in flight leaves the draft alone.
func (s *StudentSurface) TurnIn(ctx context.Context, content string) (models.Submission, error) {
	if err := s.guard.begin(); err != nil {
		s.setNotice(err)
		return models.Submission{}, err
	}
	defer s.guard.end()

	if err := s.SetDraft(content); err != nil {
		s.setNotice(err)
		return models.Submission{}, err
	}
	saved, err := s.store.Submit(ctx, s.studentID, content)
	if err != nil {
		s.setNotice(err)
		return models.Submission{}, err
	}

	s.mu.Lock()
	// Edits made while the call was in flight win over the stored copy.
	if s.draft == content {
		s.draft = saved.Content
	}
	s.notice = nil
	s.mu.Unlock()
	return saved, nil
}

// TeacherSurface is the grading surface of a teacher.
type TeacherSurface struct {
	surfaceBase
	session *GradingSession
}

func newTeacherSurface(deps surfaceDeps) *TeacherSurface {
	return &TeacherSurface{surfaceBase: surfaceBase{surfaceDeps: deps}}
}

// Role implements Surface.
func (t *TeacherSurface) Role() identity.Role {
	return identity.RoleTeacher
}

// Roster returns every submission of the assignment in id order.
func (t *TeacherSurface) Roster() []models.Submission {
	return t.store.ListForAssignment()
}

// RosterLabel is the status caption of a roster entry.
func (t *TeacherSurface) RosterLabel(submission models.Submission) string {
	if submission.IsGraded() && submission.Grade != nil {
		return fmt.Sprintf("%d / %d", *submission.Grade, t.store.Assignment().EffectiveMaxScore())
	}
	return "Needs Grading"
}

// Session returns the open grading session, or nil.
func (t *TeacherSurface) Session() *GradingSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// SelectSubmission opens a grading session, discarding any session already open.
func (t *TeacherSurface) SelectSubmission(submissionID uint) (*GradingSession, error) {
	submission, ok := t.store.Get(submissionID)
	if !ok {
		err := fmt.Errorf("%w: submission %d", models.ErrNotFound, submissionID)
		t.setNotice(err)
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.session.Discard()
	}
	t.session = OpenGradingSession(t.store, t.assist, submission)
	t.notice = nil
	return t.session, nil
}

// AutoGrade stages the assistant's suggestion in the open session.
func (t *TeacherSurface) AutoGrade(ctx context.Context) error {
	session := t.Session()
	if session == nil {
		return ErrSessionClosed
	}
	if err := session.ApplyAssist(ctx); err != nil {
		t.logger.Warn().Err(err).Msg("auto-grade failed")
		t.setNotice(err)
		return err
	}
	return nil
}

// SaveGrade commits the open session. The roster reflects the new grade as soon
// as the backend confirms it; on failure the session stays open.
func (t *TeacherSurface) SaveGrade(ctx context.Context) (models.Submission, error) {
	session := t.Session()
	if session == nil {
		return models.Submission{}, ErrSessionClosed
	}
	if err := t.guard.begin(); err != nil {
		t.setNotice(err)
		return models.Submission{}, err
	}
	saved, err := session.Commit(ctx)
	t.guard.end()

	if err != nil {
		t.setNotice(err)
		return models.Submission{}, err
	}

	t.mu.Lock()
	if t.session == session {
		t.session = nil
	}
	t.notice = nil
	t.mu.Unlock()
	return saved, nil
}

// CancelGrading discards the open session.
func (t *TeacherSurface) CancelGrading() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.session.Discard()
		t.session = nil
	}
}

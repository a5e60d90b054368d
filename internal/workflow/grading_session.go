package workflow

import (
	"context"
	"sync"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

// GradingSession stages a grade and feedback for one submission until the
// teacher commits or discards it. Staged values never touch the store.
type GradingSession struct {
	store  *SubmissionStore
	assist ai.Assistant

	mu         sync.Mutex
	submission models.Submission
	grade      int
	feedback   string
	closed     bool
	committing bool
}

// OpenGradingSession seeds the draft from the submission's current grade (0 when
// ungraded) and feedback.
func OpenGradingSession(store *SubmissionStore, assist ai.Assistant, submission models.Submission) *GradingSession {
	session := &GradingSession{
		store:      store,
		assist:     assist,
		submission: submission,
		feedback:   submission.Feedback,
	}
	if submission.Grade != nil {
		session.grade = *submission.Grade
	}
	return session
}

// Submission returns the submission as it was when the session opened.
func (g *GradingSession) Submission() models.Submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submission
}

// StagedGrade returns the draft grade.
func (g *GradingSession) StagedGrade() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.grade
}

// StagedFeedback returns the draft feedback.
func (g *GradingSession) StagedFeedback() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.feedback
}

// IsOpen reports whether the session can still be edited.
func (g *GradingSession) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed
}

// StageGrade changes the draft grade. Range checks happen on commit.
func (g *GradingSession) StageGrade(score int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrSessionClosed
	}
	g.grade = score
	return nil
}

// StageFeedback changes the draft feedback.
func (g *GradingSession) StageFeedback(text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrSessionClosed
	}
	g.feedback = text
	return nil
}

// ApplyAssist replaces the draft with the assistant's suggestion. The teacher
// may keep editing afterwards; on failure the draft is left as it was.
func (g *GradingSession) ApplyAssist(ctx context.Context) error {
	if g.assist == nil {
		return ErrAssistUnavailable
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrSessionClosed
	}
	assignment := g.store.Assignment()
	input := ai.GradeInput{
		SubmissionID:          g.submission.ID,
		AssignmentTitle:       assignment.Title,
		AssignmentDescription: assignment.Description,
		MaxScore:              assignment.EffectiveMaxScore(),
		SubmissionContent:     g.submission.Content,
	}
	g.mu.Unlock()

	suggestion, err := g.assist.AutoGrade(ctx, input)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrSessionClosed
	}
	g.grade = suggestion.Grade
	g.feedback = suggestion.Feedback
	return nil
}

// Commit saves the staged values and closes the session. A failed commit keeps
// the session open so the teacher can correct the input or retry. Only one
// commit may be in flight; a second one gets ErrBusy.
func (g *GradingSession) Commit(ctx context.Context) (models.Submission, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return models.Submission{}, ErrSessionClosed
	}
	if g.committing {
		g.mu.Unlock()
		return models.Submission{}, ErrBusy
	}
	g.committing = true
	id, grade, feedback := g.submission.ID, g.grade, g.feedback
	g.mu.Unlock()

	saved, err := g.store.Grade(ctx, id, grade, feedback)

	g.mu.Lock()
	g.committing = false
	if err != nil {
		g.mu.Unlock()
		return models.Submission{}, err
	}
	g.closed = true
	g.submission = saved
	g.mu.Unlock()
	return saved, nil
}

// Discard closes the session without saving.
func (g *GradingSession) Discard() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

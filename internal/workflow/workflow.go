// Package workflow drives one user's interaction with an assignment: loading it,
// turning work in as a student, and grading as a teacher.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

// Dependencies groups the collaborators of an AssignmentWorkflow.
type Dependencies struct {
	Identity identity.Context
	Backend  Backend
	Assist   ai.Assistant
	Logger   zerolog.Logger
	Now      func() time.Time
}

// AssignmentWorkflow loads an assignment for the current user and hands out the
// surface matching the user's role.
type AssignmentWorkflow struct {
	assignmentID uint
	identity     identity.Context
	backend      Backend
	assist       ai.Assistant
	logger       zerolog.Logger
	now          func() time.Time

	guard   actionGuard
	mu      sync.Mutex
	surface Surface
	notice  *Notice
}

// New constructs a workflow for one assignment.
func New(assignmentID uint, deps Dependencies) *AssignmentWorkflow {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssignmentWorkflow{
		assignmentID: assignmentID,
		identity:     deps.Identity,
		backend:      deps.Backend,
		assist:       deps.Assist,
		logger:       deps.Logger.With().Str("component", "assignment_workflow").Uint("assignment_id", assignmentID).Logger(),
		now:          now,
	}
}

// Load fetches the assignment and its submissions and builds the role surface.
// On failure the previously loaded surface, if any, is kept.
func (w *AssignmentWorkflow) Load(ctx context.Context) (Surface, error) {
	surface, err := w.load(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.notice = noticeFor(err)
		return nil, err
	}
	w.notice = nil
	w.surface = surface
	return surface, nil
}

func (w *AssignmentWorkflow) load(ctx context.Context) (Surface, error) {
	if w.identity == nil {
		return nil, ErrUnauthenticated
	}
	user, ok := w.identity.CurrentUser()
	if !ok {
		return nil, ErrUnauthenticated
	}

	if err := w.guard.begin(); err != nil {
		return nil, err
	}
	defer w.guard.end()

	assignment, err := w.backend.GetAssignment(ctx, w.assignmentID)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to load assignment")
		return nil, err
	}
	submissions, err := w.backend.ListSubmissions(ctx, w.assignmentID)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to load submissions")
		return nil, err
	}

	store, err := NewSubmissionStore(assignment, submissions, w.backend, w.logger)
	if err != nil {
		return nil, err
	}
	store.now = w.now

	deps := surfaceDeps{store: store, guard: &w.guard, assist: w.assist, now: w.now, logger: w.logger}
	switch user.Role {
	case identity.RoleStudent:
		return newStudentSurface(deps, user.ID), nil
	case identity.RoleTeacher:
		return newTeacherSurface(deps), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrWrongRole, user.Role)
	}
}

// Surface returns the last successfully loaded surface.
func (w *AssignmentWorkflow) Surface() Surface {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.surface
}

// Notice returns the error produced by the last failed Load.
func (w *AssignmentWorkflow) Notice() *Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notice
}

// Pending reports whether a network call is in flight.
func (w *AssignmentWorkflow) Pending() bool {
	return w.guard.pending()
}

// Student returns the student surface, or ErrWrongRole.
func (w *AssignmentWorkflow) Student() (*StudentSurface, error) {
	surface, ok := w.Surface().(*StudentSurface)
	if !ok {
		return nil, ErrWrongRole
	}
	return surface, nil
}

// Teacher returns the teacher surface, or ErrWrongRole.
func (w *AssignmentWorkflow) Teacher() (*TeacherSurface, error) {
	surface, ok := w.Surface().(*TeacherSurface)
	if !ok {
		return nil, ErrWrongRole
	}
	return surface, nil
}

// actionGuard allows a single write in flight per workflow.
type actionGuard struct {
	busy atomic.Bool
}

func (g *actionGuard) begin() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (g *actionGuard) end() {
	g.busy.Store(false)
}

func (g *actionGuard) pending() bool {
	return g.busy.Load()
}


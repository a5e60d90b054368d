package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/models"
)

// SubmissionStore holds the submissions of one assignment and enforces the
// submission lifecycle before anything is persisted.
type SubmissionStore struct {
	assignment models.Assignment
	backend    Backend
	logger     zerolog.Logger
	now        func() time.Time

	mu        sync.RWMutex
	records   []models.Submission
	byID      map[uint]int
	byStudent map[uint]int
}

// NewSubmissionStore builds a store from the records returned by the backend.
// Records are kept in id order; if the backend returns two records for one
// student only the newest is kept.
func NewSubmissionStore(assignment models.Assignment, submissions []models.Submission, backend Backend, logger zerolog.Logger) (*SubmissionStore, error) {
	store := &SubmissionStore{
		assignment: assignment,
		backend:    backend,
		logger:     logger.With().Str("component", "submission_store").Uint("assignment_id", assignment.ID).Logger(),
		now:        time.Now,
	}

	sorted := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if err := submission.CheckInvariants(); err != nil {
			return nil, err
		}
		sorted = append(sorted, submission)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	latest := make(map[uint]models.Submission, len(sorted))
	for _, submission := range sorted {
		if previous, exists := latest[submission.StudentID]; exists {
			store.logger.Warn().
				Uint("student_id", submission.StudentID).
				Uint("dropped_submission_id", previous.ID).
				Msg("duplicate submissions for student")
		}
		latest[submission.StudentID] = submission
	}
	for _, submission := range sorted {
		if latest[submission.StudentID].ID == submission.ID {
			store.records = append(store.records, submission)
		}
	}
	store.reindex()

	return store, nil
}

// Assignment returns the assignment the store is scoped to.
func (s *SubmissionStore) Assignment() models.Assignment {
	return s.assignment
}

// ListForAssignment returns the submissions ordered by id.
func (s *SubmissionStore) ListForAssignment() []models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Submission, len(s.records))
	copy(out, s.records)
	return out
}

// FindByStudent locates the student's submission.
func (s *SubmissionStore) FindByStudent(studentID uint) (models.Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byStudent[studentID]
	if !ok {
		return models.Submission{}, false
	}
	return s.records[idx], true
}

// Get returns the submission with the given id.
func (s *SubmissionStore) Get(submissionID uint) (models.Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[submissionID]
	if !ok {
		return models.Submission{}, false
	}
	return s.records[idx], true
}

// StatusOf returns the student's lifecycle state, including the synthetic unsubmitted state.
func (s *SubmissionStore) StatusOf(studentID uint) models.SubmissionStatus {
	if submission, ok := s.FindByStudent(studentID); ok {
		return submission.Status
	}
	return models.SubmissionStatusUnsubmitted
}

// Submit creates or overwrites the student's submission. The store is only
// updated after the backend confirms the write.
func (s *SubmissionStore) Submit(ctx context.Context, studentID uint, content string) (models.Submission, error) {
	candidate, exists := s.FindByStudent(studentID)
	if !exists {
		candidate = models.Unsubmitted(s.assignment.ID, studentID)
	}
	if err := candidate.Resubmit(content, s.now()); err != nil {
		return models.Submission{}, err
	}

	saved, err := s.backend.Submit(ctx, s.assignment.ID, studentID, content)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("submit failed")
		return models.Submission{}, err
	}
	if err := s.accept(saved); err != nil {
		return models.Submission{}, err
	}

	s.logger.Info().Uint("submission_id", saved.ID).Uint("student_id", studentID).Msg("submission stored")
	return saved, nil
}

// Grade records a grade for an existing submission. Scores outside
// [0, max score] are rejected before reaching the backend.
func (s *SubmissionStore) Grade(ctx context.Context, submissionID uint, score int, feedback string) (models.Submission, error) {
	candidate, ok := s.Get(submissionID)
	if !ok {
		return models.Submission{}, fmt.Errorf("%w: submission %d", models.ErrNotFound, submissionID)
	}
	if err := candidate.ApplyGrade(score, feedback, s.assignment.EffectiveMaxScore(), 0, s.now()); err != nil {
		return models.Submission{}, err
	}

	saved, err := s.backend.Grade(ctx, submissionID, score, feedback)
	if err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("grade failed")
		return models.Submission{}, err
	}
	if err := s.accept(saved); err != nil {
		return models.Submission{}, err
	}

	s.logger.Info().Uint("submission_id", saved.ID).Int("grade", score).Msg("grade stored")
	return saved, nil
}

// accept reconciles a record confirmed by the backend into the store, replacing
// by id (or by student when the backend re-keyed the record).
func (s *SubmissionStore) accept(saved models.Submission) error {
	if err := saved.CheckInvariants(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.byID[saved.ID]; ok {
		s.records[idx] = saved
		s.reindex()
		return nil
	}
	if idx, ok := s.byStudent[saved.StudentID]; ok {
		s.records[idx] = saved
	} else {
		s.records = append(s.records, saved)
	}
	sort.SliceStable(s.records, func(i, j int) bool { return s.records[i].ID < s.records[j].ID })
	s.reindex()
	return nil
}

func (s *SubmissionStore) reindex() {
	s.byID = make(map[uint]int, len(s.records))
	s.byStudent = make(map[uint]int, len(s.records))
	for idx, submission := range s.records {
		s.byID[submission.ID] = idx
		s.byStudent[submission.StudentID] = idx
	}
}

package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

type memoryBackend struct {
	mu          sync.Mutex
	assignment  models.Assignment
	submissions []models.Submission
	nextID      uint
	now         time.Time

	loadErr   error
	submitErr error
	gradeErr  error

	submitCalls int
	gradeCalls  int

	submitStarted chan struct{}
	submitRelease chan struct{}
	gradeStarted  chan struct{}
	gradeRelease  chan struct{}
}

func newMemoryBackend(assignment models.Assignment) *memoryBackend {
	return &memoryBackend{
		assignment: assignment,
		nextID:     1,
		now:        time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memoryBackend) seed(studentID uint, content string) models.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	submission, err := models.NewSubmission(m.assignment.ID, studentID, content, m.now)
	if err != nil {
		panic(err)
	}
	submission.ID = m.nextID
	m.nextID++
	m.submissions = append(m.submissions, submission)
	return submission
}

func (m *memoryBackend) findByStudent(studentID uint) (models.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, submission := range m.submissions {
		if submission.StudentID == studentID {
			return submission, true
		}
	}
	return models.Submission{}, false
}

func (m *memoryBackend) GetAssignment(_ context.Context, assignmentID uint) (models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return models.Assignment{}, m.loadErr
	}
	if assignmentID != m.assignment.ID {
		return models.Assignment{}, fmt.Errorf("%w: assignment %d", models.ErrNotFound, assignmentID)
	}
	return m.assignment, nil
}

func (m *memoryBackend) ListSubmissions(_ context.Context, assignmentID uint) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]models.Submission, len(m.submissions))
	copy(out, m.submissions)
	return out, nil
}

func (m *memoryBackend) Submit(_ context.Context, assignmentID, studentID uint, content string) (models.Submission, error) {
	if m.submitStarted != nil {
		m.submitStarted <- struct{}{}
		<-m.submitRelease
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalls++
	if m.submitErr != nil {
		return models.Submission{}, m.submitErr
	}

	m.now = m.now.Add(time.Minute)
	for i := range m.submissions {
		if m.submissions[i].StudentID == studentID {
			if err := m.submissions[i].Resubmit(content, m.now); err != nil {
				return models.Submission{}, err
			}
			return m.submissions[i], nil
		}
	}

	submission, err := models.NewSubmission(assignmentID, studentID, content, m.now)
	if err != nil {
		return models.Submission{}, err
	}
	submission.ID = m.nextID
	m.nextID++
	m.submissions = append(m.submissions, submission)
	return submission, nil
}

func (m *memoryBackend) Grade(_ context.Context, submissionID uint, grade int, feedback string) (models.Submission, error) {
	if m.gradeStarted != nil {
		m.gradeStarted <- struct{}{}
		<-m.gradeRelease
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gradeCalls++
	if m.gradeErr != nil {
		return models.Submission{}, m.gradeErr
	}
	for i := range m.submissions {
		if m.submissions[i].ID == submissionID {
			if err := m.submissions[i].ApplyGrade(grade, feedback, m.assignment.EffectiveMaxScore(), 99, m.now); err != nil {
				return models.Submission{}, err
			}
			return m.submissions[i], nil
		}
	}
	return models.Submission{}, fmt.Errorf("%w: submission %d", models.ErrNotFound, submissionID)
}

type stubAssistant struct {
	hint       string
	hintErr    error
	suggestion ai.GradeSuggestion
	gradeErr   error
}

func (s stubAssistant) Hint(context.Context, ai.HintInput) (string, error) {
	return s.hint, s.hintErr
}

func (s stubAssistant) AutoGrade(context.Context, ai.GradeInput) (ai.GradeSuggestion, error) {
	return s.suggestion, s.gradeErr
}

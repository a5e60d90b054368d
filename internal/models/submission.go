package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SubmissionStatus tracks where a student's work sits in the grading lifecycle.
type SubmissionStatus string

const (
	// SubmissionStatusUnsubmitted is the synthetic state of a student with no record yet.
	SubmissionStatusUnsubmitted SubmissionStatus = "unsubmitted"
	// SubmissionStatusSubmitted indicates the work was turned in but not graded.
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded SubmissionStatus = "graded"
)

// Submission represents one student's attempt at an assignment.
type Submission struct {
	ID           uint                     `gorm:"primaryKey" json:"id"`
	AssignmentID uint                     `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint                     `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Content      string                   `gorm:"type:text;not null" json:"content"`
	Status       SubmissionStatus         `gorm:"size:32;not null" json:"status"`
	Grade        *int                     `json:"grade"`
	Feedback     string                   `gorm:"type:text" json:"feedback"`
	SubmittedAt  *time.Time               `json:"submitted_at"`
	GradedBy     *uint                    `json:"graded_by"`
	GradedAt     *time.Time               `json:"graded_at"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Assignment   Assignment               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student      User                     `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	History      []SubmissionGradeHistory `gorm:"foreignKey:SubmissionID" json:"history,omitempty"`
}

// SubmissionGradeHistory keeps every grading action applied to a submission.
type SubmissionGradeHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Score        int       `gorm:"not null" json:"score"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	GradedBy     uint      `gorm:"not null" json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
}

// Unsubmitted returns the placeholder used for a student who has not turned anything in.
func Unsubmitted(assignmentID, studentID uint) Submission {
	return Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Status:       SubmissionStatusUnsubmitted,
	}
}

// NewSubmission creates the first record for a student.
func NewSubmission(assignmentID, studentID uint, content string, now time.Time) (Submission, error) {
	submission := Unsubmitted(assignmentID, studentID)
	if err := submission.Resubmit(content, now); err != nil {
		return Submission{}, err
	}
	return submission, nil
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// IsSubmitted reports whether a record exists for the student.
func (s Submission) IsSubmitted() bool {
	return s.Status == SubmissionStatusSubmitted || s.Status == SubmissionStatusGraded
}

// Resubmit overwrites the content. Graded work is frozen.
func (s *Submission) Resubmit(content string, now time.Time) error {
	if s.IsGraded() {
		return ErrSubmissionGraded
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}

	submittedAt := now
	s.Content = content
	s.Status = SubmissionStatusSubmitted
	s.SubmittedAt = &submittedAt
	s.Grade = nil
	s.Feedback = ""
	return nil
}

// ApplyGrade records a teacher's grade. Regrading overwrites the previous values.
func (s *Submission) ApplyGrade(score int, feedback string, maxScore int, graderID uint, now time.Time) error {
	if !s.IsSubmitted() {
		return ErrNotSubmitted
	}
	if err := CheckScore(score, maxScore); err != nil {
		return err
	}

	grade := score
	gradedAt := now
	s.Grade = &grade
	s.Feedback = feedback
	s.Status = SubmissionStatusGraded
	s.GradedAt = &gradedAt
	if graderID != 0 {
		grader := graderID
		s.GradedBy = &grader
	}
	return nil
}

// CheckScore validates a score against the assignment ceiling.
func CheckScore(score, maxScore int) error {
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}
	if score < 0 || score > maxScore {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrScoreOutOfRange, score, maxScore)
	}
	return nil
}

// ScoreFromNumber converts a JSON number into an integer score.
func ScoreFromNumber(value float64) (int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
		return 0, ErrScoreNotInteger
	}
	if value > math.MaxInt32 || value < math.MinInt32 {
		return 0, ErrScoreOutOfRange
	}
	return int(value), nil
}

// CheckInvariants verifies the record is internally consistent.
func (s Submission) CheckInvariants() error {
	switch s.Status {
	case SubmissionStatusUnsubmitted:
		if s.SubmittedAt != nil || s.Grade != nil {
			return fmt.Errorf("%w: unsubmitted record carries submission data", ErrInvalidState)
		}
	case SubmissionStatusSubmitted:
		if s.Grade != nil {
			return fmt.Errorf("%w: ungraded submission %d has a grade", ErrInvalidState, s.ID)
		}
		if s.SubmittedAt == nil {
			return fmt.Errorf("%w: submission %d has no submission time", ErrInvalidState, s.ID)
		}
	case SubmissionStatusGraded:
		if s.Grade == nil {
			return fmt.Errorf("%w: graded submission %d has no grade", ErrInvalidState, s.ID)
		}
		if s.SubmittedAt == nil {
			return fmt.Errorf("%w: submission %d has no submission time", ErrInvalidState, s.ID)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, s.Status)
	}
	return nil
}

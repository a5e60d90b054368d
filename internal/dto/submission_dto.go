package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// SubmissionCreateRequest is the body of a turn-in.
type SubmissionCreateRequest struct {
	Content string `json:"content" validate:"max=20000"`
}

// SubmissionGradeRequest is used to grade a submission. Grade is a pointer so a
// zero score passes the required check.
type SubmissionGradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required"`
	Feedback string   `json:"feedback" validate:"max=5000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint                             `json:"id"`
	AssignmentID uint                             `json:"assignment_id"`
	StudentID    uint                             `json:"student_id"`
	Content      string                           `json:"content"`
	Status       string                           `json:"status"`
	Grade        *int                             `json:"grade"`
	Feedback     string                           `json:"feedback"`
	SubmittedAt  *time.Time                       `json:"submitted_at"`
	GradedBy     *uint                            `json:"graded_by"`
	GradedAt     *time.Time                       `json:"graded_at"`
	History      []SubmissionGradeHistoryResponse `json:"history,omitempty"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
	Student      StudentLite                      `json:"student"`
}

// SubmissionGradeHistoryResponse serializes grading history entries.
type SubmissionGradeHistoryResponse struct {
	Score    int       `json:"score"`
	Feedback string    `json:"feedback"`
	GradedBy uint      `json:"graded_by"`
	GradedAt time.Time `json:"graded_at"`
}

// StudentLite summarizes a student for roster display.
type StudentLite struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Content:      model.Content,
		Status:       string(model.Status),
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		SubmittedAt:  model.SubmittedAt,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		Student:      StudentLite{ID: model.StudentID},
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:       model.Student.ID,
			Name:     model.Student.FullName,
			Username: model.Student.Username,
		}
	}

	if len(model.History) > 0 {
		response.History = NewGradeHistoryResponseSlice(model.History)
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// NewGradeHistoryResponseSlice converts grading history entries into DTOs.
func NewGradeHistoryResponseSlice(entries []models.SubmissionGradeHistory) []SubmissionGradeHistoryResponse {
	history := make([]SubmissionGradeHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, SubmissionGradeHistoryResponse{
			Score:    entry.Score,
			Feedback: entry.Feedback,
			GradedBy: entry.GradedBy,
			GradedAt: entry.GradedAt,
		})
	}
	return history
}

// ToModel rebuilds the model from a decoded response.
func (r SubmissionResponse) ToModel() models.Submission {
	return models.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Content:      r.Content,
		Status:       models.SubmissionStatus(r.Status),
		Grade:        r.Grade,
		Feedback:     r.Feedback,
		SubmittedAt:  r.SubmittedAt,
		GradedBy:     r.GradedBy,
		GradedAt:     r.GradedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Student: models.User{
			ID:       r.Student.ID,
			FullName: r.Student.Name,
			Username: r.Student.Username,
		},
	}
}

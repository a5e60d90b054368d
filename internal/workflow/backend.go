package workflow

import (
	"context"

	"github.com/noah-isme/classroom-api/internal/models"
)

// Backend is the fetch API the workflow loads from and persists through.
// Implementations wrap network failures with ErrTransport and report domain
// failures with the models error categories.
type Backend interface {
	GetAssignment(ctx context.Context, assignmentID uint) (models.Assignment, error)
	ListSubmissions(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	Submit(ctx context.Context, assignmentID, studentID uint, content string) (models.Submission, error)
	Grade(ctx context.Context, submissionID uint, grade int, feedback string) (models.Submission, error)
}

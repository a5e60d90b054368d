package ai

import "context"

// HintInput is the context a student asks for help with.
type HintInput struct {
	AssignmentID          uint
	AssignmentTitle       string
	AssignmentDescription string
	Draft                 string
}

// GradeInput contains the artefacts needed to suggest a grade.
type GradeInput struct {
	SubmissionID          uint
	AssignmentTitle       string
	AssignmentDescription string
	MaxScore              int
	SubmissionContent     string
}

// GradeSuggestion is an advisory grade and feedback pair.
type GradeSuggestion struct {
	Grade    int    `json:"grade"`
	Feedback string `json:"feedback"`
}

// Assistant produces advisory output. Implementations may be non-deterministic and
// must never be required for a submission or a grade to be saved.
type Assistant interface {
	Hint(ctx context.Context, input HintInput) (string, error)
	AutoGrade(ctx context.Context, input GradeInput) (GradeSuggestion, error)
}

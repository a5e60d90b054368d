package dto

// HintRequest carries the student's current draft.
type HintRequest struct {
	Draft string `json:"draft" validate:"max=20000"`
}

// HintResponse wraps a hint. Hints are never stored.
type HintResponse struct {
	Hint string `json:"hint"`
}

// GradeSuggestionResponse is an advisory grade proposed by the assistant.
type GradeSuggestionResponse struct {
	Grade    int    `json:"grade"`
	Feedback string `json:"feedback"`
}

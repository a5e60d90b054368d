package ai

import (
	"context"
	"strings"
)

const (
	defaultHint      = "Try breaking down the problem into smaller steps."
	fractionHint     = "For fractions, remember to find the common denominator first!"
	emptyDraftHint   = "Start by restating the question in your own words."
	autoGradeMessage = "Good effort! The process is clear, but check the final simplification. (Auto-generated)"
	autoGradePercent = 85
)

// RuleAssistant is a deterministic Assistant with canned guidance.
type RuleAssistant struct{}

// NewRuleAssistant constructs the rule-based assistant.
func NewRuleAssistant() RuleAssistant {
	return RuleAssistant{}
}

// Hint returns guidance derived from keywords in the assignment text.
func (RuleAssistant) Hint(_ context.Context, input HintInput) (string, error) {
	parts := []string{defaultHint}

	text := strings.ToLower(input.AssignmentTitle + " " + input.AssignmentDescription)
	if strings.Contains(text, "fraction") {
		parts = append(parts, fractionHint)
	}
	if strings.TrimSpace(input.Draft) == "" {
		parts = append(parts, emptyDraftHint)
	}

	return strings.Join(parts, " "), nil
}

// AutoGrade suggests a fixed share of the max score.
func (RuleAssistant) AutoGrade(_ context.Context, input GradeInput) (GradeSuggestion, error) {
	if strings.TrimSpace(input.SubmissionContent) == "" {
		return GradeSuggestion{Grade: 0, Feedback: "No answer was submitted. (Auto-generated)"}, nil
	}

	maxScore := input.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}

	return GradeSuggestion{
		Grade:    maxScore * autoGradePercent / 100,
		Feedback: autoGradeMessage,
	}, nil
}

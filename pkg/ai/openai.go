package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	assistDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classroom",
		Subsystem: "ai",
		Name:      "assist_duration_seconds",
		Help:      "Duration of AI assist requests",
	}, []string{"model", "kind"})

	assistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classroom",
		Subsystem: "ai",
		Name:      "assist_failures_total",
		Help:      "Number of AI assist failures",
	}, []string{"model", "kind"})
)

// OpenAIConfig defines configuration options for the OpenAI assistant.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAssistant implements Assistant against the OpenAI chat completion API.
type OpenAIAssistant struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAssistant builds a new assistant using the provided configuration.
func NewOpenAIAssistant(cfg OpenAIConfig) (*OpenAIAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 400
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIAssistant{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/classroom-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_assistant").Logger(),
	}, nil
}

// Hint asks the model for a nudge that does not reveal the answer.
func (a *OpenAIAssistant) Hint(parent context.Context, input HintInput) (string, error) {
	content, err := a.complete(parent, "hint", hintSystemPrompt(), buildHintPrompt(input), false)
	if err != nil {
		return "", err
	}
	return content, nil
}

// AutoGrade asks the model for a grade suggestion.
func (a *OpenAIAssistant) AutoGrade(parent context.Context, input GradeInput) (GradeSuggestion, error) {
	content, err := a.complete(parent, "grade", gradeSystemPrompt(), buildGradePrompt(input), true)
	if err != nil {
		return GradeSuggestion{}, err
	}

	suggestion, err := parseGradeSuggestion(content, input.MaxScore)
	if err != nil {
		assistFailures.WithLabelValues(a.cfg.Model, "grade").Inc()
		return GradeSuggestion{}, err
	}
	return suggestion, nil
}

func (a *OpenAIAssistant) complete(parent context.Context, kind, system, user string, jsonMode bool) (string, error) {
	ctx, span := a.tracer.Start(parent, "openai."+kind, trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, request)
	assistDuration.WithLabelValues(a.cfg.Model, kind).Observe(time.Since(start).Seconds())
	if err != nil {
		assistFailures.WithLabelValues(a.cfg.Model, kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn().Err(err).Str("kind", kind).Msg("openai request failed")
		return "", fmt.Errorf("openai %s: %w", kind, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		assistFailures.WithLabelValues(a.cfg.Model, kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("usage.total_tokens", resp.Usage.TotalTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func hintSystemPrompt() string {
	return "You are a patient tutor. Give the student one short hint that moves them forward without revealing the final answer."
}

func gradeSystemPrompt() string {
	return "You are a teaching assistant. Respond with a JSON object containing an integer grade between 0 and the max score, " +
		"and a short feedback string addressed to the student."
}

func buildHintPrompt(input HintInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Assignment\n")
	builder.WriteString(input.AssignmentTitle)
	builder.WriteString("\n\n## Instructions\n")
	builder.WriteString(input.AssignmentDescription)
	if strings.TrimSpace(input.Draft) != "" {
		builder.WriteString("\n\n## Student draft\n")
		builder.WriteString(input.Draft)
	}
	return builder.String()
}

func buildGradePrompt(input GradeInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Assignment\n")
	builder.WriteString(input.AssignmentTitle)
	builder.WriteString("\n\n## Instructions\n")
	builder.WriteString(input.AssignmentDescription)
	builder.WriteString("\n\n## Max score\n")
	builder.WriteString(strconv.Itoa(input.MaxScore))
	builder.WriteString("\n\n## Submission\n")
	builder.WriteString(input.SubmissionContent)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseGradeSuggestion(content string, maxScore int) (GradeSuggestion, error) {
	var data struct {
		Grade    float64 `json:"grade"`
		Feedback string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return GradeSuggestion{}, fmt.Errorf("parse grade suggestion json: %w", err)
	}

	if maxScore <= 0 {
		maxScore = 100
	}
	grade := int(data.Grade + 0.5)
	if grade < 0 {
		grade = 0
	}
	if grade > maxScore {
		grade = maxScore
	}

	return GradeSuggestion{Grade: grade, Feedback: strings.TrimSpace(data.Feedback)}, nil
}

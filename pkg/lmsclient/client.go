// Package lmsclient talks to the classroom API over HTTP. It implements the
// workflow backend and the assistant used by the terminal client.
package lmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/workflow"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

const apiPrefix = "/api/v1"

// Config holds the connection settings of the client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Client is a classroom API client.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	logger  zerolog.Logger
}

var (
	_ workflow.Backend = (*Client)(nil)
	_ ai.Assistant     = (*Client)(nil)
)

// New builds a client. An empty timeout defaults to ten seconds.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		timeout: timeout,
		logger:  cfg.Logger.With().Str("component", "lms_client").Logger(),
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

// GetAssignment implements workflow.Backend.
func (c *Client) GetAssignment(ctx context.Context, assignmentID uint) (models.Assignment, error) {
	var resp dto.AssignmentResponse
	if err := c.do(ctx, fiber.MethodGet, fmt.Sprintf("/assignments/%d", assignmentID), nil, &resp); err != nil {
		return models.Assignment{}, err
	}
	return resp.ToModel(), nil
}

// ListSubmissions implements workflow.Backend.
func (c *Client) ListSubmissions(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var resp []dto.SubmissionResponse
	if err := c.do(ctx, fiber.MethodGet, fmt.Sprintf("/assignments/%d/submissions", assignmentID), nil, &resp); err != nil {
		return nil, err
	}

	submissions := make([]models.Submission, 0, len(resp))
	for _, item := range resp {
		submissions = append(submissions, item.ToModel())
	}
	return submissions, nil
}

// Submit implements workflow.Backend. The server derives the student from the
// bearer token; studentID only guards against a mismatched session.
func (c *Client) Submit(ctx context.Context, assignmentID, studentID uint, content string) (models.Submission, error) {
	var resp dto.SubmissionResponse
	payload := dto.SubmissionCreateRequest{Content: content}
	if err := c.do(ctx, fiber.MethodPost, fmt.Sprintf("/assignments/%d/submissions", assignmentID), payload, &resp); err != nil {
		return models.Submission{}, err
	}
	if studentID != 0 && resp.StudentID != studentID {
		return models.Submission{}, fmt.Errorf("%w: server stored the submission for student %d", workflow.ErrTransport, resp.StudentID)
	}
	return resp.ToModel(), nil
}

// Grade implements workflow.Backend.
func (c *Client) Grade(ctx context.Context, submissionID uint, grade int, feedback string) (models.Submission, error) {
	score := float64(grade)
	payload := dto.SubmissionGradeRequest{Grade: &score, Feedback: feedback}

	var resp dto.SubmissionResponse
	if err := c.do(ctx, fiber.MethodPut, fmt.Sprintf("/submissions/%d/grade", submissionID), payload, &resp); err != nil {
		return models.Submission{}, err
	}
	return resp.ToModel(), nil
}

// Hint implements ai.Assistant through the server's assist endpoint.
func (c *Client) Hint(ctx context.Context, input ai.HintInput) (string, error) {
	if input.AssignmentID == 0 {
		return "", fmt.Errorf("%w: assignment id is required for a hint", models.ErrValidation)
	}

	var resp dto.HintResponse
	if err := c.do(ctx, fiber.MethodPost, fmt.Sprintf("/assignments/%d/assist/hint", input.AssignmentID), dto.HintRequest{Draft: input.Draft}, &resp); err != nil {
		return "", err
	}
	return resp.Hint, nil
}

// AutoGrade implements ai.Assistant through the server's assist endpoint.
func (c *Client) AutoGrade(ctx context.Context, input ai.GradeInput) (ai.GradeSuggestion, error) {
	if input.SubmissionID == 0 {
		return ai.GradeSuggestion{}, fmt.Errorf("%w: submission id is required for a grade suggestion", models.ErrValidation)
	}

	var resp dto.GradeSuggestionResponse
	if err := c.do(ctx, fiber.MethodPost, fmt.Sprintf("/submissions/%d/assist/grade", input.SubmissionID), nil, &resp); err != nil {
		return ai.GradeSuggestion{}, err
	}
	return ai.GradeSuggestion{Grade: resp.Grade, Feedback: resp.Feedback}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: %v", workflow.ErrTransport, ctx.Err())
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + apiPrefix + path)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("%w: %v", workflow.ErrTransport, err)
	}

	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if payload != nil {
		agent.JSON(payload)
	}
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		c.logger.Warn().Errs("errors", errs).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("%w: %v", workflow.ErrTransport, errors.Join(errs...))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrTransport, err)
	}

	var decoded envelope
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("%w: unexpected response (status %d): %v", workflow.ErrTransport, code, err)
	}

	if code >= 300 || !decoded.Success {
		return statusError(code, decoded)
	}

	if out == nil || len(decoded.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("%w: decode response data: %v", workflow.ErrTransport, err)
	}
	return nil
}

func statusError(code int, resp envelope) error {
	message := strings.TrimSpace(resp.Message)
	if len(resp.Details) > 0 {
		fields := make([]string, 0, len(resp.Details))
		for field, rule := range resp.Details {
			fields = append(fields, field+" "+rule)
		}
		message = fmt.Sprintf("%s (%s)", message, strings.Join(fields, ", "))
	}

	switch code {
	case fiber.StatusBadRequest:
		return fmt.Errorf("%w: %s", models.ErrValidation, message)
	case fiber.StatusUnauthorized:
		return fmt.Errorf("%w: %s", workflow.ErrUnauthenticated, message)
	case fiber.StatusForbidden:
		return fmt.Errorf("%w: %s", workflow.ErrWrongRole, message)
	case fiber.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrNotFound, message)
	case fiber.StatusConflict:
		return fmt.Errorf("%w: %s", models.ErrInvalidState, message)
	default:
		return fmt.Errorf("%w: status %d: %s", workflow.ErrTransport, code, message)
	}
}

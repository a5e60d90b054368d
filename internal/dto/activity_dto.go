package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ActivityListRequest defines filters for retrieving activity logs.
type ActivityListRequest struct {
	Page         int    `query:"page" validate:"gte=0"`
	PageSize     int    `query:"page_size" validate:"gte=0,lte=100"`
	ActorID      uint   `query:"actor_id"`
	AssignmentID uint   `query:"assignment_id"`
	Action       string `query:"action" validate:"omitempty,oneof=submission.created submission.resubmitted submission.graded"`
}

// ActivityResponse serializes activity log entries.
type ActivityResponse struct {
	ID           uint                   `json:"id"`
	ActorID      uint                   `json:"actor_id"`
	ActorRole    string                 `json:"actor_role"`
	Action       string                 `json:"action"`
	AssignmentID uint                   `json:"assignment_id"`
	SubmissionID *uint                  `json:"submission_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated activity logs.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts a model into an activity DTO.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}

	return ActivityResponse{
		ID:           entry.ID,
		ActorID:      entry.ActorID,
		ActorRole:    entry.ActorRole,
		Action:       entry.Action,
		AssignmentID: entry.AssignmentID,
		SubmissionID: entry.SubmissionID,
		Metadata:     metadata,
		CreatedAt:    entry.CreatedAt,
	}
}

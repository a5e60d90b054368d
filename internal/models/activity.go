package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is the audit trail of submission and grading actions.
type ActivityLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ActorID      uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole    string            `gorm:"size:16;not null" json:"actor_role"`
	Action       string            `gorm:"size:64;not null" json:"action"`
	AssignmentID uint              `gorm:"not null;index" json:"assignment_id"`
	SubmissionID *uint             `json:"submission_id"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}

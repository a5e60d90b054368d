package dto

import "time"

// GradeDistributionResponse buckets graded submissions by percentage of the max score.
type GradeDistributionResponse map[string]int64

// AssignmentSummaryResponse aggregates the grading state of one assignment.
type AssignmentSummaryResponse struct {
	AssignmentID      uint                      `json:"assignment_id"`
	MaxScore          int                       `json:"max_score"`
	Students          int64                     `json:"students"`
	Unsubmitted       int64                     `json:"unsubmitted"`
	NeedsGrading      int64                     `json:"needs_grading"`
	Graded            int64                     `json:"graded"`
	OnTimeSubmissions int64                     `json:"on_time_submissions"`
	LateSubmissions   int64                     `json:"late_submissions"`
	AverageGrade      *float64                  `json:"average_grade"`
	GradeDistribution GradeDistributionResponse `json:"grade_distribution"`
	GeneratedAt       time.Time                 `json:"generated_at"`
	CacheHit          bool                      `json:"cache_hit"`
}

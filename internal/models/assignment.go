package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultMaxScore applies to assignments created without an explicit ceiling.
const DefaultMaxScore = 100

// Assignment represents a graded task posted to a course.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CourseID    uint         `gorm:"not null;index" json:"course_id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	MaxScore    int          `gorm:"not null" json:"max_score"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Submissions []Submission `json:"-"`
}

// BeforeCreate fills the default max score.
func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.MaxScore <= 0 {
		a.MaxScore = DefaultMaxScore
	}
	return nil
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// EffectiveMaxScore guards against records persisted before the default existed.
func (a Assignment) EffectiveMaxScore() int {
	if a.MaxScore <= 0 {
		return DefaultMaxScore
	}
	return a.MaxScore
}

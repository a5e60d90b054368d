package models

import (
	"errors"
	"fmt"
)

// Error categories shared by the server and the workflow client.
var (
	// ErrValidation marks input that can be corrected by the user and retried.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks unknown assignment or submission identifiers.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a transition the submission lifecycle does not allow.
	ErrInvalidState = errors.New("invalid state")
)

var (
	// ErrEmptyContent is returned when a submission body is blank after trimming.
	ErrEmptyContent = fmt.Errorf("%w: submission content must not be empty", ErrValidation)
	// ErrScoreOutOfRange is returned when a grade falls outside [0, max score].
	ErrScoreOutOfRange = fmt.Errorf("%w: score out of range", ErrValidation)
	// ErrScoreNotInteger is returned when a grade carries a fractional part.
	ErrScoreNotInteger = fmt.Errorf("%w: score must be a whole number", ErrValidation)
	// ErrSubmissionGraded is returned when a student tries to change graded work.
	ErrSubmissionGraded = fmt.Errorf("%w: submission already graded", ErrInvalidState)
	// ErrNotSubmitted is returned when grading a record that was never turned in.
	ErrNotSubmitted = fmt.Errorf("%w: nothing has been submitted yet", ErrInvalidState)
)

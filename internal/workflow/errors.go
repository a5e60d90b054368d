package workflow

import (
	"errors"

	"github.com/noah-isme/classroom-api/internal/models"
)

var (
	// ErrTransport wraps failures of the fetch API collaborator.
	ErrTransport = errors.New("transport failure")
	// ErrBusy is returned while another write from the same workflow is in flight.
	ErrBusy = errors.New("another action is still in progress")
	// ErrUnauthenticated is returned when the identity context has no user.
	ErrUnauthenticated = errors.New("no active session")
	// ErrWrongRole is returned when an action is invoked from the other role's surface.
	ErrWrongRole = errors.New("action not available for this role")
	// ErrSessionClosed is returned by a grading session after commit or discard.
	ErrSessionClosed = errors.New("grading session is closed")
	// ErrAssistUnavailable is returned when no assistant is configured.
	ErrAssistUnavailable = errors.New("assist unavailable")
)

// ErrorKind tells a surface how to present a failure.
type ErrorKind int

const (
	// KindNone means no error.
	KindNone ErrorKind = iota
	// KindValidation is reported inline next to the offending input.
	KindValidation
	// KindNotFound is reported as a page-level empty state.
	KindNotFound
	// KindTransport is reported as a transient notice; the action may be retried.
	KindTransport
	// KindInvalidState is reported when the lifecycle forbids the action.
	KindInvalidState
	// KindUnauthenticated means no role-gated content may be shown.
	KindUnauthenticated
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	case KindInvalidState:
		return "invalid_state"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Classify maps an error onto the error taxonomy. Unrecognised errors are treated as
// collaborator failures.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, models.ErrValidation):
		return KindValidation
	case errors.Is(err, models.ErrNotFound):
		return KindNotFound
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, ErrBusy), errors.Is(err, ErrWrongRole), errors.Is(err, ErrSessionClosed):
		return KindInvalidState
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	default:
		return KindTransport
	}
}

// Notice is a user-visible message produced by a failed action.
type Notice struct {
	Kind    ErrorKind
	Message string
}

func noticeFor(err error) *Notice {
	if err == nil {
		return nil
	}
	return &Notice{Kind: Classify(err), Message: err.Error()}
}

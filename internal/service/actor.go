package service

import (
	"errors"

	"github.com/noah-isme/classroom-api/internal/identity"
)

// ErrForbidden is returned when the acting role may not perform an operation.
var ErrForbidden = errors.New("operation not permitted for this role")

// Actor is the authenticated user performing a service call.
type Actor struct {
	ID   uint
	Role identity.Role
}

// ActorFrom converts an identity into an Actor. ok is false without a session.
func ActorFrom(ctx identity.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	user, ok := ctx.CurrentUser()
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: user.ID, Role: user.Role}, true
}

// IsTeacher reports whether the actor grades work.
func (a Actor) IsTeacher() bool {
	return a.Role == identity.RoleTeacher
}

// IsStudent reports whether the actor submits work.
func (a Actor) IsStudent() bool {
	return a.Role == identity.RoleStudent
}

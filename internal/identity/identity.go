// Package identity resolves who is acting in a classroom session.
package identity

import (
	"fmt"
	"strings"
)

// Role is the closed set of classroom personas.
type Role string

const (
	// RoleStudent submits work.
	RoleStudent Role = "student"
	// RoleTeacher grades work.
	RoleTeacher Role = "teacher"
)

// ParseRole normalises a raw role claim.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

func (r Role) String() string {
	return string(r)
}

// User is the acting user of a session.
type User struct {
	ID   uint
	Role Role
}

// Context exposes the current session's user. ok is false when nobody is signed in.
type Context interface {
	CurrentUser() (user User, ok bool)
}

// Static is a fixed identity, used by the terminal client and tests.
type Static struct {
	user *User
}

// NewStatic returns a Context that always resolves to the given user.
func NewStatic(id uint, role Role) Static {
	return Static{user: &User{ID: id, Role: role}}
}

// Anonymous returns a Context without a session.
func Anonymous() Static {
	return Static{}
}

// CurrentUser implements Context.
func (s Static) CurrentUser() (User, bool) {
	if s.user == nil || s.user.ID == 0 {
		return User{}, false
	}
	return *s.user, true
}

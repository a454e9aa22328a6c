package domain

import (
	"fmt"
	"strings"
)

// Role of a platform user. Stored upper-case; the profile API reports the
// display form ("Student").
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// ParseRole accepts any casing of "student" or "teacher". An empty string
// parses to the empty role, which means "any role" in searches.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case string(RoleStudent):
		return RoleStudent, nil
	case string(RoleTeacher):
		return RoleTeacher, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// Display returns the human-readable role name.
func (r Role) Display() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleTeacher:
		return "Teacher"
	}
	return ""
}

// Param returns the lower-case form used in search query strings.
func (r Role) Param() string {
	return strings.ToLower(string(r))
}

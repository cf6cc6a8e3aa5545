package tutor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGradeValue rejects grade strings outside the closed set.
	ErrInvalidGradeValue = errors.New("invalid grade value")
	// ErrPermissionDenied rejects grading by callers without edit rights
	// on the session's lesson.
	ErrPermissionDenied = errors.New("user does not have permission to grade this lesson")
)

// MissingFieldError reports a required input that was absent entirely.
// Distinct from an empty grade string, which is a valid "clear".
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return "missing required param " + e.Field
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string // "session", "lesson", "response"
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("failed to find %s with %sId %s", e.Entity, e.Entity, e.ID)
}

// IndexOutOfRangeError reports a response or expectation index beyond
// the stored array bounds. Arrays are never grown implicitly.
type IndexOutOfRangeError struct {
	Name   string
	Index  int
	Length int
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range, session has %d", e.Name, e.Index, e.Length)
}

// ExpectationCountMismatchError guards invalidation against a stale or
// renumbered question snapshot: the caller's expectation number does not
// fit the stored expectation entries.
type ExpectationCountMismatchError struct {
	Expected int // entries stored on the response
	Got      int
}

func (e ExpectationCountMismatchError) Error() string {
	return fmt.Sprintf("expectation %d does not match the response's %d expectation scores", e.Got, e.Expected)
}

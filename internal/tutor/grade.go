package tutor

import "fmt"

// Grade is one label from the closed grading vocabulary. The empty
// string is the single canonical "ungraded" value; nulls arriving from
// callers are normalized to it at the transport boundary.
type Grade string

const (
	GradeGood    Grade = "Good"
	GradeBad     Grade = "Bad"
	GradeNeutral Grade = "Neutral"
	GradeNone    Grade = ""
)

// Valid reports whether g belongs to the closed set. GradeNone is valid:
// it clears a grade.
func (g Grade) Valid() bool {
	switch g {
	case GradeGood, GradeBad, GradeNeutral, GradeNone:
		return true
	}
	return false
}

func (g Grade) points() float64 {
	switch g {
	case GradeGood:
		return 1
	case GradeNeutral:
		return 0.5
	}
	return 0
}

// GradeField selects which side of the ledger an operation reads or
// writes.
type GradeField string

const (
	FieldClassifierGrade GradeField = "classifierGrade"
	FieldGraderGrade     GradeField = "graderGrade"
)

// ExpectationScore is the ledger entry for one expectation of one
// response: an automated classifier label and a human grader label,
// sourced independently. Invalidated entries stay stored but count as
// ungraded everywhere.
type ExpectationScore struct {
	ClassifierGrade Grade `json:"classifierGrade"`
	GraderGrade     Grade `json:"graderGrade"`
	Invalidated     bool  `json:"invalidated,omitempty"`
}

// SetGrade writes one side of the entry, enforcing the closed value set.
// The sibling field and neighboring entries are never touched.
func (e *ExpectationScore) SetGrade(field GradeField, value Grade) error {
	if !value.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGradeValue, value)
	}
	switch field {
	case FieldClassifierGrade:
		e.ClassifierGrade = value
	case FieldGraderGrade:
		e.GraderGrade = value
	default:
		return fmt.Errorf("unknown grade field %q", field)
	}
	return nil
}

func (e ExpectationScore) grade(field GradeField) Grade {
	if field == FieldClassifierGrade {
		return e.ClassifierGrade
	}
	return e.GraderGrade
}

// Graded reports whether the entry carries a usable grade for field.
func (e ExpectationScore) Graded(field GradeField) bool {
	return !e.Invalidated && e.grade(field) != GradeNone
}

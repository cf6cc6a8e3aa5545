package rbac

import (
	"context"

	"github.com/ICTLearningSciences/opentutor-api/internal/tutor"
)

// LessonGate adapts the role checker to the grading service's
// authorization contract: anyone with the session:grade permission may
// grade any lesson, and lesson owners may always grade their own.
type LessonGate struct {
	Checker *Checker
}

func NewLessonGate() LessonGate { return LessonGate{Checker: NewChecker(nil)} }

func (g LessonGate) CanEditLesson(ctx context.Context, actor tutor.Actor, lesson tutor.Lesson) bool {
	if lesson.CreatedBy != "" && lesson.CreatedBy == actor.Subject {
		return true
	}
	return g.Checker.Has(actor.Role, "session:grade")
}

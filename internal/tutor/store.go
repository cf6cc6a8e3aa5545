package tutor

import "context"

type SessionListOpts struct {
	LessonID string
	Username string
	Limit    int
	Offset   int
}

type LessonListOpts struct {
	CreatedBy string
	Limit     int
	Offset    int
}

// Store is the persistence collaborator. The update protocol reads and
// writes whole session documents; it never issues partial updates, so a
// concurrent writer to the same sessionId wins at document granularity.
type Store interface {
	GetSession(ctx context.Context, sessionID string) (Session, error)
	// PutSession upserts the whole document keyed by SessionID and
	// returns the stored state.
	PutSession(ctx context.Context, s Session) (Session, error)
	ListSessions(ctx context.Context, opts SessionListOpts) ([]Session, error)

	GetLesson(ctx context.Context, lessonID string) (Lesson, error)
	PutLesson(ctx context.Context, l Lesson) (Lesson, error)
	ListLessons(ctx context.Context, opts LessonListOpts) ([]Lesson, error)
}

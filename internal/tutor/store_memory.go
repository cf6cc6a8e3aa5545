package tutor

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryStore keeps whole documents in maps. Used by tests and by
// single-process offline runs; documents are copied on the way in and
// out so callers never alias stored state.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	lessons  map[string]Lesson
}

func NewInMemoryStore() Store {
	return &memoryStore{
		sessions: map[string]Session{},
		lessons:  map[string]Lesson{},
	}
}

func (m *memoryStore) GetSession(ctx context.Context, sessionID string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, NotFoundError{Entity: "session", ID: sessionID}
	}
	return cloneSession(s), nil
}

func (m *memoryStore) PutSession(ctx context.Context, s Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	if prev, ok := m.sessions[s.SessionID]; ok {
		s.CreatedAt = prev.CreatedAt
	} else {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.sessions[s.SessionID] = cloneSession(s)
	return s, nil
}

func (m *memoryStore) ListSessions(ctx context.Context, opts SessionListOpts) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if opts.LessonID != "" && s.LessonID != opts.LessonID {
			continue
		}
		if opts.Username != "" && s.Username != opts.Username {
			continue
		}
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].SessionID < out[j].SessionID
	})
	return window(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) GetLesson(ctx context.Context, lessonID string) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[lessonID]
	if !ok {
		return Lesson{}, NotFoundError{Entity: "lesson", ID: lessonID}
	}
	return l, nil
}

func (m *memoryStore) PutLesson(ctx context.Context, l Lesson) (Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	if prev, ok := m.lessons[l.LessonID]; ok {
		l.CreatedAt = prev.CreatedAt
	} else {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	m.lessons[l.LessonID] = l
	return l, nil
}

func (m *memoryStore) ListLessons(ctx context.Context, opts LessonListOpts) ([]Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Lesson, 0, len(m.lessons))
	for _, l := range m.lessons {
		if opts.CreatedBy != "" && l.CreatedBy != opts.CreatedBy {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonID < out[j].LessonID })
	return window(out, opts.Limit, opts.Offset), nil
}

func cloneSession(s Session) Session {
	out := s
	out.UserResponses = make([]UserResponse, len(s.UserResponses))
	for i, r := range s.UserResponses {
		r.ExpectationScores = append([]ExpectationScore(nil), r.ExpectationScores...)
		out.UserResponses[i] = r
	}
	if s.GraderGrade != nil {
		g := *s.GraderGrade
		out.GraderGrade = &g
	}
	if s.ClassifierGrade != nil {
		g := *s.ClassifierGrade
		out.ClassifierGrade = &g
	}
	return out
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

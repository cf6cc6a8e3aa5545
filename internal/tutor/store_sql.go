package tutor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLStore persists lessons and sessions as JSON document columns over
// database/sql. The same statements run on sqlite and postgres.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) GetSession(ctx context.Context, sessionID string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, lesson_id, username, question_json, responses_json,
		        grader_grade, classifier_grade, created_at, updated_at
		 FROM sessions WHERE session_id=$1`, sessionID)
	return scanSession(row, sessionID)
}

func (s *SQLStore) PutSession(ctx context.Context, sess Session) (Session, error) {
	qj, err := json.Marshal(sess.Question)
	if err != nil {
		return Session{}, err
	}
	if sess.UserResponses == nil {
		sess.UserResponses = []UserResponse{}
	}
	rj, err := json.Marshal(sess.UserResponses)
	if err != nil {
		return Session{}, err
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, lesson_id, username, question_json, responses_json,
		                       grader_grade, classifier_grade, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (session_id) DO UPDATE SET
		   lesson_id=EXCLUDED.lesson_id,
		   username=EXCLUDED.username,
		   question_json=EXCLUDED.question_json,
		   responses_json=EXCLUDED.responses_json,
		   grader_grade=EXCLUDED.grader_grade,
		   classifier_grade=EXCLUDED.classifier_grade,
		   updated_at=EXCLUDED.updated_at`,
		sess.SessionID, sess.LessonID, sess.Username, string(qj), string(rj),
		nullFloat(sess.GraderGrade), nullFloat(sess.ClassifierGrade), now, now)
	if err != nil {
		return Session{}, err
	}
	return s.GetSession(ctx, sess.SessionID)
}

func (s *SQLStore) ListSessions(ctx context.Context, opts SessionListOpts) ([]Session, error) {
	q := `SELECT session_id, lesson_id, username, question_json, responses_json,
	             grader_grade, classifier_grade, created_at, updated_at
	      FROM sessions`
	var where []string
	var args []any
	if opts.LessonID != "" {
		args = append(args, opts.LessonID)
		where = append(where, fmt.Sprintf("lesson_id=$%d", len(args)))
	}
	if opts.Username != "" {
		args = append(args, opts.Username)
		where = append(where, fmt.Sprintf("username=$%d", len(args)))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY updated_at DESC, session_id ASC"
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetLesson(ctx context.Context, lessonID string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lesson_id, created_by, doc_json, created_at, updated_at
		 FROM lessons WHERE lesson_id=$1`, lessonID)
	return scanLesson(row, lessonID)
}

func (s *SQLStore) PutLesson(ctx context.Context, l Lesson) (Lesson, error) {
	doc, err := json.Marshal(l)
	if err != nil {
		return Lesson{}, err
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lessons (lesson_id, created_by, doc_json, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (lesson_id) DO UPDATE SET
		   created_by=EXCLUDED.created_by,
		   doc_json=EXCLUDED.doc_json,
		   updated_at=EXCLUDED.updated_at`,
		l.LessonID, l.CreatedBy, string(doc), now, now)
	if err != nil {
		return Lesson{}, err
	}
	return s.GetLesson(ctx, l.LessonID)
}

func (s *SQLStore) ListLessons(ctx context.Context, opts LessonListOpts) ([]Lesson, error) {
	q := `SELECT lesson_id, created_by, doc_json, created_at, updated_at FROM lessons`
	var args []any
	if opts.CreatedBy != "" {
		args = append(args, opts.CreatedBy)
		q += " WHERE created_by=$1"
	}
	q += " ORDER BY updated_at DESC, lesson_id ASC"
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Lesson
	for rows.Next() {
		l, err := scanLesson(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner, sessionID string) (Session, error) {
	var sess Session
	var qjson, rjson string
	var gg, cg sql.NullFloat64
	err := row.Scan(&sess.SessionID, &sess.LessonID, &sess.Username, &qjson, &rjson,
		&gg, &cg, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, NotFoundError{Entity: "session", ID: sessionID}
		}
		return Session{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &sess.Question); err != nil {
		return Session{}, err
	}
	if err := json.Unmarshal([]byte(rjson), &sess.UserResponses); err != nil {
		return Session{}, err
	}
	if gg.Valid {
		v := gg.Float64
		sess.GraderGrade = &v
	}
	if cg.Valid {
		v := cg.Float64
		sess.ClassifierGrade = &v
	}
	return sess, nil
}

func scanLesson(row rowScanner, lessonID string) (Lesson, error) {
	var l Lesson
	var id, createdBy, doc string
	var createdAt, updatedAt int64
	err := row.Scan(&id, &createdBy, &doc, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, NotFoundError{Entity: "lesson", ID: lessonID}
		}
		return Lesson{}, err
	}
	if err := json.Unmarshal([]byte(doc), &l); err != nil {
		return Lesson{}, err
	}
	l.LessonID = id
	l.CreatedBy = createdBy
	l.CreatedAt = createdAt
	l.UpdatedAt = updatedAt
	return l, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

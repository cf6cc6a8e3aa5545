package tutor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Actor identifies the authenticated caller for permission decisions.
type Actor struct {
	Subject string
	Role    string
}

// LessonAccess is the authorization collaborator: may this actor grade
// sessions that belong to this lesson?
type LessonAccess interface {
	CanEditLesson(ctx context.Context, actor Actor, lesson Lesson) bool
}

// SessionCandidate is the typed bulk-submission payload. It is validated
// field by field before any merge; grader grades are never taken from it.
type SessionCandidate struct {
	SessionID     string         `json:"sessionId"`
	LessonID      string         `json:"lessonId"`
	Username      string         `json:"username"`
	Question      Question       `json:"question"`
	UserResponses []UserResponse `json:"userResponses"`
}

// SetGradeArgs carries the single-cell edit parameters. Pointer fields
// distinguish "absent" from zero values: index 0 and the empty grade are
// both meaningful inputs.
type SetGradeArgs struct {
	SessionID            string
	UserAnswerIndex      *int
	UserExpectationIndex *int
	Grade                *Grade
}

// Service applies external edits to session ledgers and keeps the
// derived scores consistent. All validation happens before any store
// write: a failed call leaves stored state untouched.
type Service struct {
	store  Store
	access LessonAccess
}

func NewService(store Store, access LessonAccess) *Service {
	return &Service{store: store, access: access}
}

// SubmitSession ingests a full session document: upsert keyed by
// sessionId, wholesale replace of question/responses/username on
// re-submission. Classifier grades flow in from the candidate after
// validation; grader grades are always reset to ungraded, they are only
// ever set interactively. Response IDs are assigned server-side. Scores
// are recomputed and persisted with the document.
func (s *Service) SubmitSession(ctx context.Context, sessionID string, candidate SessionCandidate) (Session, error) {
	if sessionID == "" {
		return Session{}, MissingFieldError{Field: "sessionId"}
	}
	if candidate.SessionID == "" {
		return Session{}, MissingFieldError{Field: "sessionId"}
	}
	if candidate.LessonID == "" {
		return Session{}, MissingFieldError{Field: "lessonId"}
	}
	if _, err := s.store.GetLesson(ctx, candidate.LessonID); err != nil {
		return Session{}, err
	}

	responses := make([]UserResponse, len(candidate.UserResponses))
	for i, r := range candidate.UserResponses {
		if r.ResponseID == "" {
			r.ResponseID = uuid.NewString()
		}
		scores := make([]ExpectationScore, len(r.ExpectationScores))
		for j, es := range r.ExpectationScores {
			if !es.ClassifierGrade.Valid() {
				return Session{}, fmt.Errorf("%w: %q", ErrInvalidGradeValue, es.ClassifierGrade)
			}
			scores[j] = ExpectationScore{ClassifierGrade: es.ClassifierGrade, GraderGrade: GradeNone}
		}
		r.ExpectationScores = scores
		responses[i] = r
	}

	sess := Session{
		SessionID:     candidate.SessionID,
		LessonID:      candidate.LessonID,
		Username:      candidate.Username,
		Question:      candidate.Question,
		UserResponses: responses,
	}
	sess.GraderGrade = CalculateScore(sess, FieldGraderGrade)
	sess.ClassifierGrade = CalculateScore(sess, FieldClassifierGrade)
	return s.store.PutSession(ctx, sess)
}

// SetGrade applies one grader edit to one expectation of one response.
// The classifier side of the ledger is never touched here. Out-of-range
// indices fail instead of growing arrays.
func (s *Service) SetGrade(ctx context.Context, actor Actor, args SetGradeArgs) (Session, error) {
	if args.SessionID == "" {
		return Session{}, MissingFieldError{Field: "sessionId"}
	}
	if args.UserAnswerIndex == nil {
		return Session{}, MissingFieldError{Field: "userAnswerIndex"}
	}
	if args.UserExpectationIndex == nil {
		return Session{}, MissingFieldError{Field: "userExpectationIndex"}
	}
	if args.Grade == nil {
		return Session{}, MissingFieldError{Field: "grade"}
	}

	sess, err := s.store.GetSession(ctx, args.SessionID)
	if err != nil {
		return Session{}, err
	}
	if err := s.authorize(ctx, actor, sess); err != nil {
		return Session{}, err
	}

	ai, ei := *args.UserAnswerIndex, *args.UserExpectationIndex
	if ai < 0 || ai >= len(sess.UserResponses) {
		return Session{}, IndexOutOfRangeError{Name: "userAnswerIndex", Index: ai, Length: len(sess.UserResponses)}
	}
	resp := &sess.UserResponses[ai]
	if ei < 0 || ei >= len(resp.ExpectationScores) {
		return Session{}, IndexOutOfRangeError{Name: "userExpectationIndex", Index: ei, Length: len(resp.ExpectationScores)}
	}
	if err := resp.ExpectationScores[ei].SetGrade(FieldGraderGrade, *args.Grade); err != nil {
		return Session{}, err
	}

	sess.GraderGrade = CalculateScore(sess, FieldGraderGrade)
	sess.ClassifierGrade = CalculateScore(sess, FieldClassifierGrade)
	return s.store.PutSession(ctx, sess)
}

// InvalidateResponse tags one expectation entry of one response as
// excluded from aggregation, without deleting anything. expectation
// addresses the entry and doubles as a staleness guard: a number that
// does not fit the stored entries means the caller graded against a
// renumbered question.
func (s *Service) InvalidateResponse(ctx context.Context, actor Actor, sessionID, responseID string, expectation int, invalid bool) (Session, error) {
	if sessionID == "" {
		return Session{}, MissingFieldError{Field: "sessionId"}
	}
	if responseID == "" {
		return Session{}, MissingFieldError{Field: "responseId"}
	}

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if err := s.authorize(ctx, actor, sess); err != nil {
		return Session{}, err
	}

	var resp *UserResponse
	for i := range sess.UserResponses {
		if sess.UserResponses[i].ResponseID == responseID {
			resp = &sess.UserResponses[i]
			break
		}
	}
	if resp == nil {
		return Session{}, NotFoundError{Entity: "response", ID: responseID}
	}
	if expectation < 0 || expectation >= len(resp.ExpectationScores) {
		return Session{}, ExpectationCountMismatchError{Expected: len(resp.ExpectationScores), Got: expectation}
	}
	resp.ExpectationScores[expectation].Invalidated = invalid

	sess.GraderGrade = CalculateScore(sess, FieldGraderGrade)
	sess.ClassifierGrade = CalculateScore(sess, FieldClassifierGrade)
	return s.store.PutSession(ctx, sess)
}

// authorize checks lesson edit rights for grading operations. A session
// may reference a lesson that no longer exists (or none at all); the
// access decision then falls back to role alone.
func (s *Service) authorize(ctx context.Context, actor Actor, sess Session) error {
	lesson, err := s.store.GetLesson(ctx, sess.LessonID)
	if err != nil {
		lesson = Lesson{LessonID: sess.LessonID}
	}
	if s.access == nil || !s.access.CanEditLesson(ctx, actor, lesson) {
		return ErrPermissionDenied
	}
	return nil
}

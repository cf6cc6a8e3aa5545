package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ICTLearningSciences/opentutor-api/internal/rbac"
	"github.com/ICTLearningSciences/opentutor-api/internal/tutor"
)

// asRole stands in for the JWT middleware: it injects an authenticated
// subject and role into the request context.
func asRole(sub, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := rbac.WithSubject(r.Context(), sub)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(t *testing.T) (chi.Router, tutor.Store) {
	t.Helper()
	store := tutor.NewInMemoryStore()
	_, err := store.PutLesson(context.Background(), tutor.Lesson{
		LessonID: "lesson1",
		Name:     "lesson name",
		Question: "question?",
	})
	require.NoError(t, err)
	svc := tutor.NewService(store, rbac.NewLessonGate())

	r := chi.NewRouter()
	r.Route("/grading-api", func(gr chi.Router) {
		gr.Use(RequireAPISecret("test-secret"))
		gr.Post("/sessions/{sessionID}", SubmitSessionHandler(svc))
	})
	r.Group(func(pr chi.Router) {
		pr.Use(asRole("grader1", "grader"))
		pr.Get("/sessions/{sessionID}", GetSessionHandler(store))
		pr.Get("/sessions", ListSessionsHandler(store))
		pr.Post("/sessions/{sessionID}/grade", SetGradeHandler(svc))
		pr.Post("/sessions/{sessionID}/responses/{responseID}/invalidate", InvalidateResponseHandler(svc))
	})
	return r, store
}

func submitBody() []byte {
	b, _ := json.Marshal(tutor.SessionCandidate{
		SessionID: "session1",
		LessonID:  "lesson1",
		Username:  "username1",
		Question: tutor.Question{
			Text:         "question?",
			Expectations: []tutor.QuestionExpectation{{Text: "expected text 1"}},
		},
		UserResponses: []tutor.UserResponse{
			{Text: "answer1", ExpectationScores: []tutor.ExpectationScore{{ClassifierGrade: tutor.GradeGood}}},
			{Text: "answer2", ExpectationScores: []tutor.ExpectationScore{{ClassifierGrade: tutor.GradeBad}}},
		},
	})
	return b
}

func doJSON(t *testing.T, r chi.Router, method, path, secret string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSubmitSessionRequiresAPISecret(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/grading-api/sessions/session1", "", submitBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(t, r, http.MethodPost, "/grading-api/sessions/session1", "wrong", submitBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitAndFetchSession(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/grading-api/sessions/session1", "test-secret", submitBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodGet, "/sessions/session1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sess tutor.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "session1", sess.SessionID)
	require.Len(t, sess.UserResponses, 2)
	require.NotNil(t, sess.ClassifierGrade)
	assert.Equal(t, 0.5, *sess.ClassifierGrade)
	assert.Nil(t, sess.GraderGrade)
}

func TestSubmitSessionRejectsUnknownFields(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/grading-api/sessions/session1", "test-secret",
		[]byte(`{"sessionId":"session1","lessonId":"lesson1","graderGrade":1}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitSessionMissingLesson(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/grading-api/sessions/session1", "test-secret",
		[]byte(`{"sessionId":"session1"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing required param lessonId")
}

func TestSetGradeEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/grading-api/sessions/session1", "test-secret", submitBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/sessions/session1/grade", "",
		[]byte(`{"userAnswerIndex":0,"userExpectationIndex":0,"grade":"Good"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sess tutor.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, tutor.GradeGood, sess.UserResponses[0].ExpectationScores[0].GraderGrade)
	// second response still ungraded, so no session-level grader score
	assert.Nil(t, sess.GraderGrade)

	rec = doJSON(t, r, http.MethodPost, "/sessions/session1/grade", "",
		[]byte(`{"userAnswerIndex":0,"userExpectationIndex":0}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing required param grade")

	rec = doJSON(t, r, http.MethodPost, "/sessions/session1/grade", "",
		[]byte(`{"userAnswerIndex":7,"userExpectationIndex":0,"grade":"Good"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/sessions/nope/grade", "",
		[]byte(`{"userAnswerIndex":0,"userExpectationIndex":0,"grade":"Good"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidateEndpoint(t *testing.T) {
	r, store := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/grading-api/sessions/session1", "test-secret", submitBody())
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := store.GetSession(context.Background(), "session1")
	require.NoError(t, err)
	responseID := sess.UserResponses[1].ResponseID

	rec = doJSON(t, r, http.MethodPost, "/sessions/session1/responses/"+responseID+"/invalidate", "",
		[]byte(`{"expectation":0,"invalid":true}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated tutor.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.UserResponses[1].ExpectationScores[0].Invalidated)
	// response 2 has no graded entries left, so the session is unscorable
	assert.Nil(t, updated.ClassifierGrade)

	rec = doJSON(t, r, http.MethodPost, "/sessions/session1/responses/"+responseID+"/invalidate", "",
		[]byte(`{"invalid":true}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing required param expectation")

	rec = doJSON(t, r, http.MethodPost, "/sessions/session1/responses/"+responseID+"/invalidate", "",
		[]byte(`{"expectation":9,"invalid":true}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessionsScoping(t *testing.T) {
	r, store := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/grading-api/sessions/session1", "test-secret", submitBody())
	require.Equal(t, http.StatusOK, rec.Code)

	// graders see everything
	rec = doJSON(t, r, http.MethodGet, "/sessions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []tutor.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	// students only see their own, and this session belongs to username1
	sr := chi.NewRouter()
	sr.With(asRole("someone-else", "student")).Get("/sessions", ListSessionsHandler(store))
	rec = doJSON(t, sr, http.MethodGet, "/sessions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 0)

	sr2 := chi.NewRouter()
	sr2.With(asRole("username1", "student")).Get("/sessions", ListSessionsHandler(store))
	rec = doJSON(t, sr2, http.MethodGet, "/sessions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

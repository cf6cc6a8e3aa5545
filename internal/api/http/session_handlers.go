package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ICTLearningSciences/opentutor-api/internal/rbac"
	"github.com/ICTLearningSciences/opentutor-api/internal/tutor"
)

// POST /grading-api/sessions/{sessionID}
// Bulk ingestion of a whole session document after a tutoring run.
func SubmitSessionHandler(svc *tutor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var candidate tutor.SessionCandidate
		if err := dec.Decode(&candidate); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		sess, err := svc.SubmitSession(r.Context(), sessionID, candidate)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, sess)
	}
}

type setGradeReq struct {
	UserAnswerIndex      *int    `json:"userAnswerIndex"`
	UserExpectationIndex *int    `json:"userExpectationIndex"`
	Grade                *string `json:"grade"`
}

// POST /sessions/{sessionID}/grade
func SetGradeHandler(svc *tutor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setGradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		args := tutor.SetGradeArgs{
			SessionID:            strings.TrimSpace(chi.URLParam(r, "sessionID")),
			UserAnswerIndex:      req.UserAnswerIndex,
			UserExpectationIndex: req.UserExpectationIndex,
		}
		if req.Grade != nil {
			g := tutor.Grade(*req.Grade)
			args.Grade = &g
		}
		sess, err := svc.SetGrade(r.Context(), actorFrom(r), args)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, sess)
	}
}

type invalidateReq struct {
	Expectation *int  `json:"expectation"`
	Invalid     *bool `json:"invalid"`
}

// POST /sessions/{sessionID}/responses/{responseID}/invalidate
func InvalidateResponseHandler(svc *tutor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invalidateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Expectation == nil {
			writeErr(w, tutor.MissingFieldError{Field: "expectation"})
			return
		}
		if req.Invalid == nil {
			writeErr(w, tutor.MissingFieldError{Field: "invalid"})
			return
		}
		sess, err := svc.InvalidateResponse(r.Context(), actorFrom(r),
			strings.TrimSpace(chi.URLParam(r, "sessionID")),
			strings.TrimSpace(chi.URLParam(r, "responseID")),
			*req.Expectation, *req.Invalid)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, sess)
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(store tutor.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		if sessionID == "" {
			writeErr(w, tutor.MissingFieldError{Field: "sessionId"})
			return
		}
		sess, err := store.GetSession(r.Context(), sessionID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, sess)
	}
}

// GET /sessions?lesson_id=...&username=...&limit=50&offset=0
// Callers without session:view-all only ever see their own sessions.
func ListSessionsHandler(store tutor.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		username := strings.TrimSpace(r.URL.Query().Get("username"))
		if !checker.Has(role, "session:view-all") {
			username = rbac.SubjectFromContext(r.Context())
		}
		list, err := store.ListSessions(r.Context(), tutor.SessionListOpts{
			LessonID: strings.TrimSpace(r.URL.Query().Get("lesson_id")),
			Username: username,
			Limit:    parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:   parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		if list == nil {
			list = []tutor.Session{}
		}
		writeJSON(w, list)
	}
}

func actorFrom(r *http.Request) tutor.Actor {
	return tutor.Actor{
		Subject: rbac.SubjectFromContext(r.Context()),
		Role:    rbac.RoleFromContext(r.Context()),
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ICTLearningSciences/opentutor-api/internal/rbac"
	"github.com/ICTLearningSciences/opentutor-api/internal/tutor"
)

var lessonIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// PUT /lessons/{lessonID}
// Upsert authored lesson content. CreatedBy is pinned to the creating
// subject and survives later edits; only the owner or a role with
// lesson:edit may overwrite an existing lesson.
func UpsertLessonHandler(store tutor.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		lessonID := strings.TrimSpace(chi.URLParam(r, "lessonID"))
		if lessonID == "" {
			writeErr(w, tutor.MissingFieldError{Field: "lessonId"})
			return
		}
		var lesson tutor.Lesson
		if err := json.NewDecoder(r.Body).Decode(&lesson); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if lesson.LessonID == "" {
			lesson.LessonID = lessonID
		}
		if !lessonIDPattern.MatchString(lessonID) || !lessonIDPattern.MatchString(lesson.LessonID) {
			http.Error(w, "lessonId must match [a-z0-9-]", http.StatusBadRequest)
			return
		}

		sub := rbac.SubjectFromContext(r.Context())
		existing, err := store.GetLesson(r.Context(), lessonID)
		var notFound tutor.NotFoundError
		switch {
		case err == nil:
			owner := checker.Has(rbac.RoleFromContext(r.Context()), "lesson:edit") ||
				(existing.CreatedBy != "" && existing.CreatedBy == sub)
			if !owner {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			lesson.CreatedBy = existing.CreatedBy
		case errors.As(err, &notFound):
			lesson.CreatedBy = sub
		default:
			writeErr(w, err)
			return
		}

		lesson.LessonID = lessonID
		stored, err := store.PutLesson(r.Context(), lesson)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, stored)
	}
}

// GET /lessons/{lessonID}
func GetLessonHandler(store tutor.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lessonID := strings.TrimSpace(chi.URLParam(r, "lessonID"))
		if lessonID == "" {
			writeErr(w, tutor.MissingFieldError{Field: "lessonId"})
			return
		}
		lesson, err := store.GetLesson(r.Context(), lessonID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, lesson)
	}
}

// GET /lessons?created_by=...&limit=50&offset=0
func ListLessonsHandler(store tutor.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListLessons(r.Context(), tutor.LessonListOpts{
			CreatedBy: strings.TrimSpace(r.URL.Query().Get("created_by")),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		if list == nil {
			list = []tutor.Lesson{}
		}
		writeJSON(w, list)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ICTLearningSciences/opentutor-api/internal/tutor"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errorStatus(err))
}

// errorStatus maps the grading core's failure taxonomy onto HTTP codes.
func errorStatus(err error) int {
	var (
		missing  tutor.MissingFieldError
		notFound tutor.NotFoundError
		oob      tutor.IndexOutOfRangeError
		mismatch tutor.ExpectationCountMismatchError
	)
	switch {
	case errors.Is(err, tutor.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &missing),
		errors.As(err, &oob),
		errors.As(err, &mismatch),
		errors.Is(err, tutor.ErrInvalidGradeValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// RequireAPISecret guards machine-to-machine surfaces (the grading API)
// with a shared bearer secret.
func RequireAPISecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || r.Header.Get("Authorization") != "Bearer "+secret {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

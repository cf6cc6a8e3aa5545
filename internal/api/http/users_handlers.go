package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/ICTLearningSciences/opentutor-api/internal/rbac"
)

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"` // plaintext, hashed on write
}

// POST /users/bulk — admin bootstrap of grader/student accounts.
// Accepts a JSON array of users; passwords are bcrypt-hashed here and
// never stored in the clear.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "expected JSON array", http.StatusBadRequest)
			return
		}
		upserted := 0
		for _, u := range rows {
			if u.Username == "" {
				continue
			}
			if u.ID == "" {
				u.ID = u.Username
			}
			if u.Role == "" {
				u.Role = "student"
			}
			hash := ""
			if u.Password != "" {
				b, err := bcrypt.GenerateFromPassword([]byte(u.Password), 12)
				if err != nil {
					http.Error(w, "hash password: "+err.Error(), http.StatusInternalServerError)
					return
				}
				hash = string(b)
			}
			var err error
			if hash != "" {
				_, err = db.ExecContext(r.Context(),
					`INSERT INTO users (id, username, role, password_hash) VALUES ($1,$2,$3,$4)
					 ON CONFLICT (username) DO UPDATE SET role=EXCLUDED.role, password_hash=EXCLUDED.password_hash`,
					u.ID, u.Username, u.Role, hash)
			} else {
				_, err = db.ExecContext(r.Context(),
					`INSERT INTO users (id, username, role, password_hash) VALUES ($1,$2,$3,'')
					 ON CONFLICT (username) DO UPDATE SET role=EXCLUDED.role`,
					u.ID, u.Username, u.Role)
			}
			if err != nil {
				http.Error(w, "upsert user: "+err.Error(), http.StatusInternalServerError)
				return
			}
			upserted++
		}
		writeJSON(w, map[string]int{"upserted": upserted})
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /users/change-password
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.NewPassword == "" {
			http.Error(w, "new password required", http.StatusBadRequest)
			return
		}
		var storedHash string
		err := db.QueryRowContext(r.Context(),
			`SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&storedHash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET password_hash=$1 WHERE id=$2`, hash, userID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

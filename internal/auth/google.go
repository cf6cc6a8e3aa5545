package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	authmw "github.com/ICTLearningSciences/opentutor-api/internal/auth/middleware"
	"github.com/ICTLearningSciences/opentutor-api/internal/config"
)

// POST /auth/google  { "accessToken": "..." }
// Resolves the Google access token via the userinfo endpoint, upserts
// the user record keyed by the Google account id, and mints an internal
// JWT. New users come in as students; an existing row keeps its role.
func GoogleLoginHandler(a *authmw.AuthService, db *sql.DB, cfg config.Config) http.HandlerFunc {
	type userInfo struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.AccessToken == "" {
			http.Error(w, "missing required param accessToken", http.StatusBadRequest)
			return
		}

		resp, err := http.Get(cfg.GoogleUserInfoURL + url.QueryEscape(req.AccessToken))
		if err != nil {
			http.Error(w, "userinfo fetch error", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		var ui userInfo
		if err := json.NewDecoder(resp.Body).Decode(&ui); err != nil || ui.ID == "" {
			http.Error(w, "bad userinfo response", http.StatusBadGateway)
			return
		}

		userID := "google|" + ui.ID
		role := "student"
		var existingID, existingRole string
		err = db.QueryRowContext(r.Context(),
			`SELECT id, role FROM users WHERE id=$1`, userID).Scan(&existingID, &existingRole)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = db.ExecContext(r.Context(),
				`INSERT INTO users (id, username, role, name, email, last_login_at)
				 VALUES ($1,$2,$3,$4,$5,$6)`,
				userID, ui.Email, role, ui.Name, ui.Email, time.Now().Unix())
			if err != nil {
				http.Error(w, "user upsert failed", http.StatusInternalServerError)
				return
			}
		case err == nil:
			if existingRole != "" {
				role = existingRole
			}
			_, _ = db.ExecContext(r.Context(),
				`UPDATE users SET name=$1, email=$2, last_login_at=$3 WHERE id=$4`,
				ui.Name, ui.Email, time.Now().Unix(), userID)
		default:
			http.Error(w, "user lookup failed", http.StatusInternalServerError)
			return
		}

		tok, err := a.IssueJWT(userID, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
	}
}

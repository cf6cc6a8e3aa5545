package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/ICTLearningSciences/opentutor-api/internal/api/http"
	"github.com/ICTLearningSciences/opentutor-api/internal/auth"
	authmw "github.com/ICTLearningSciences/opentutor-api/internal/auth/middleware"
	"github.com/ICTLearningSciences/opentutor-api/internal/config"
	"github.com/ICTLearningSciences/opentutor-api/internal/db"
	"github.com/ICTLearningSciences/opentutor-api/internal/rbac"
	"github.com/ICTLearningSciences/opentutor-api/internal/tutor"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	seedAdmin(ctx, dbh, cfg)

	store := tutor.NewSQLStore(dbh, cfg.DBDriver)
	svc := tutor.NewService(store, rbac.NewLessonGate())

	authSvc := authmw.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", authmw.LoginHandler(authSvc, dbh))
	if cfg.EnableGoogleAuth {
		r.Post("/auth/google", auth.GoogleLoginHandler(authSvc, dbh, cfg))
	}

	// Grading API: machine-to-machine bulk session ingestion.
	r.Route("/grading-api", func(gr chi.Router) {
		gr.Use(api.RequireAPISecret(cfg.GradingAPISecret))
		gr.Post("/sessions/{sessionID}", api.SubmitSessionHandler(svc))
	})

	// Protected API (JWT → subject/role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		pr.With(rbac.Require("lesson:view")).
			Get("/lessons", api.ListLessonsHandler(store))
		pr.With(rbac.Require("lesson:view")).
			Get("/lessons/{lessonID}", api.GetLessonHandler(store))
		// Owner check happens in the handler; creation needs no grant.
		pr.Put("/lessons/{lessonID}", api.UpsertLessonHandler(store))

		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions", api.ListSessionsHandler(store))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions/{sessionID}", api.GetSessionHandler(store))

		// Per-lesson grading rights are decided by the service: the
		// lesson owner may grade without the session:grade permission.
		pr.Post("/sessions/{sessionID}/grade", api.SetGradeHandler(svc))
		pr.Post("/sessions/{sessionID}/responses/{responseID}/invalidate", api.InvalidateResponseHandler(svc))

		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// seedAdmin makes sure the bootstrap admin account exists so a fresh
// deployment can log in and provision graders.
func seedAdmin(ctx context.Context, dbh *sql.DB, cfg config.Config) {
	if cfg.AdminUser == "" || cfg.AdminPassHash == "" {
		return
	}
	_, err := dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, role, password_hash) VALUES ($1,$1,'admin',$2)
		 ON CONFLICT (username) DO NOTHING`,
		cfg.AdminUser, cfg.AdminPassHash)
	if err != nil {
		log.Printf("seed admin user: %v", err)
	}
}

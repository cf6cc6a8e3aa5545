package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	// HMAC secret for internally issued JWTs.
	AuthSecret string
	// Shared bearer secret guarding the bulk grading API surface.
	GradingAPISecret string

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	EnableGoogleAuth bool
	// Endpoint that resolves a Google access token to a profile.
	// Overridable for tests.
	GoogleUserInfoURL string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:         addr,
		PublicURL:        os.Getenv("PUBLIC_URL"),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		AuthSecret:       envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		GradingAPISecret: envOr("GRADING_API_SECRET", "grading-api-dev-secret"),
		AdminUser:        envOr("ADMIN_USER", "admin"),
		AdminPassHash:    envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:8000"),

		EnableGoogleAuth:  envBool("ENABLE_GOOGLE_AUTH", false),
		GoogleUserInfoURL: envOr("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v1/userinfo?alt=json&access_token="),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	JWTSecret string
	Port      string

	// DatabaseDSN selects the MySQL backend when set; otherwise the app
	// falls back to a local SQLite file at SQLitePath.
	DatabaseDSN string
	SQLitePath  string

	// Seed account for the first staff operator. Created at startup when
	// both are set and the email is not yet registered.
	AdminEmail    string
	AdminUsername string
	AdminPassword string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
)

// loadAppEnv loads .env for non-production environments. A missing .env is
// fine (CI and tests run on host env alone).
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	AppEnv = os.Getenv("APP_ENV")
	if AppEnv != "production" {
		AppEnv = "staging"
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	DatabaseDSN = os.Getenv("DATABASE_DSN")
	SQLitePath = os.Getenv("SQLITE_PATH")
	if SQLitePath == "" {
		SQLitePath = "caredesk.db"
	}

	AdminEmail = os.Getenv("ADMIN_EMAIL")
	AdminUsername = os.Getenv("ADMIN_USERNAME")
	if AdminUsername == "" {
		AdminUsername = "support"
	}
	AdminPassword = os.Getenv("ADMIN_PASSWORD")

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 20)

	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] db=%s rateLimit window=%ds capacity=%d",
		dbLabel(), RateLimitWindowSeconds, RateLimitCapacity)
}

func dbLabel() string {
	if DatabaseDSN != "" {
		return "mysql"
	}
	return "sqlite:" + SQLitePath
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

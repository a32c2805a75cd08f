package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	MySQLDSN   string
	RedisAddr  string
	RedisDB    int
	RedisPass  string

	JWTSecret     string
	TokenLifetime time.Duration

	// AppURL is the externally visible base URL, used to build avatar and
	// upload URLs handed back to clients.
	AppURL    string
	StaticDir string

	MailHost string
	MailPort int
	MailUser string
	MailPass string

	// RequireEmailVerification makes the email+code pair mandatory at
	// registration. When false the pair is ignored entirely.
	RequireEmailVerification bool

	// AccountValidFor is the period granted to new accounts before they
	// must be renewed by an admin.
	AccountValidFor time.Duration
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/clouddisk?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:    getEnvInt("REDIS_DB", 0),
		RedisPass:  os.Getenv("REDIS_PASSWORD"),

		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		TokenLifetime: time.Duration(getEnvInt("TOKEN_LIFETIME_HOURS", 7*24)) * time.Hour,

		AppURL:    getEnv("APP_URL", "http://localhost:8080"),
		StaticDir: getEnv("STATIC_DIR", "static"),

		MailHost: getEnv("MAIL_HOST", "localhost"),
		MailPort: getEnvInt("MAIL_PORT", 587),
		MailUser: os.Getenv("MAIL_USER"),
		MailPass: os.Getenv("MAIL_PASSWORD"),

		RequireEmailVerification: getEnvBool("REQUIRE_EMAIL_VERIFICATION", false),

		AccountValidFor: time.Duration(getEnvInt("ACCOUNT_VALID_DAYS", 3)) * 24 * time.Hour,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

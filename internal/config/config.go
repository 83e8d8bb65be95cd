package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCSRFKey is the development fallback for CSRF_KEY. It is public, so
// it must not be used in production.
const DefaultCSRFKey = "dev-csrf-key-change-me-32-bytes!"

type Config struct {
	HTTPAddr             string
	PublicURL            string
	APIBaseURL           string
	APITimeout           time.Duration
	RedisAddr            string
	RedisPassword        string
	SessionTTL           time.Duration
	SessionCookieName    string
	SessionCookieSecure  bool
	SessionSweepInterval time.Duration
	CSRFKey              string
	ReportImageRequired  bool
	PasswordLoginEnabled bool
	UploadMaxBytes       int64
	UploadMaxDimension   int
	LogFormat            string
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set win over the file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		PublicURL:            strings.TrimRight(getenv("PUBLIC_URL", "http://localhost:8080"), "/"),
		APIBaseURL:           strings.TrimRight(getenv("API_BASE_URL", "http://localhost:8000/api"), "/"),
		APITimeout:           getenvDuration("API_TIMEOUT", 30*time.Second),
		RedisAddr:            getenv("REDIS_ADDR", ""),
		RedisPassword:        getenv("REDIS_PASSWORD", ""),
		SessionTTL:           getenvDuration("SESSION_TTL", 24*time.Hour),
		SessionCookieName:    getenv("SESSION_COOKIE_NAME", "journal_session"),
		SessionCookieSecure:  getenvBool("SESSION_COOKIE_SECURE", false),
		SessionSweepInterval: getenvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		CSRFKey:              getenv("CSRF_KEY", DefaultCSRFKey),
		ReportImageRequired:  getenvBool("REPORT_IMAGE_REQUIRED", false),
		PasswordLoginEnabled: getenvBool("PASSWORD_LOGIN_ENABLED", false),
		UploadMaxBytes:       getenvInt64("UPLOAD_MAX_BYTES", 10<<20),
		UploadMaxDimension:   int(getenvInt64("UPLOAD_MAX_DIMENSION", 1600)),
		LogFormat:            getenv("LOG_FORMAT", "text"),
	}
}

// UsesDefaultCSRFKey reports whether CSRF_KEY was left unset.
func (c Config) UsesDefaultCSRFKey() bool {
	return c.CSRFKey == DefaultCSRFKey
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()
	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Fatalf("expected default API base url, got %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("expected 30s api timeout, got %s", cfg.APITimeout)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected empty redis addr, got %s", cfg.RedisAddr)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18080")
	t.Setenv("API_BASE_URL", "http://backend:8000/api/")
	t.Setenv("API_TIMEOUT_SECONDS", "5")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("REPORT_IMAGE_REQUIRED", "1")
	t.Setenv("PASSWORD_LOGIN_ENABLED", "true")
	t.Setenv("UPLOAD_MAX_BYTES", "2048")
	t.Setenv("UPLOAD_MAX_DIMENSION", "800")

	cfg := Load()
	if cfg.HTTPAddr != ":18080" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.APIBaseURL != "http://backend:8000/api" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Fatalf("expected API_TIMEOUT 5s, got %s", cfg.APITimeout)
	}
	if cfg.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("expected REDIS_ADDR override, got %s", cfg.RedisAddr)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected SESSION_TTL 2h, got %s", cfg.SessionTTL)
	}
	if !cfg.SessionCookieSecure || !cfg.ReportImageRequired || !cfg.PasswordLoginEnabled {
		t.Fatalf("expected boolean overrides, got %+v", cfg)
	}
	if cfg.UploadMaxBytes != 2048 {
		t.Fatalf("expected UPLOAD_MAX_BYTES 2048, got %d", cfg.UploadMaxBytes)
	}
	if cfg.UploadMaxDimension != 800 {
		t.Fatalf("expected UPLOAD_MAX_DIMENSION 800, got %d", cfg.UploadMaxDimension)
	}
}

func TestLoadConfigIgnoresInvalidValues(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")
	t.Setenv("API_TIMEOUT_SECONDS", "")
	t.Setenv("REPORT_IMAGE_REQUIRED", "maybe")

	cfg := Load()
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.APITimeout)
	}
	if cfg.ReportImageRequired {
		t.Fatalf("expected invalid bool to fall back to false")
	}
}

func TestDefaultCSRFKeyDetected(t *testing.T) {
	t.Setenv("CSRF_KEY", "")
	if cfg := Load(); !cfg.UsesDefaultCSRFKey() {
		t.Fatalf("expected default csrf key, got %q", cfg.CSRFKey)
	}

	t.Setenv("CSRF_KEY", "prod-key-0123456789abcdefghijklmn")
	if cfg := Load(); cfg.UsesDefaultCSRFKey() {
		t.Fatalf("expected CSRF_KEY override to be used")
	}
}

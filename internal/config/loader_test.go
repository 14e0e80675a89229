package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"MEETPASS_HTTP_PORT",
			"MEETPASS_SQLITE_DSN",
			"MEETPASS_BASE_URL",
			"MEETPASS_SESSION_TTL",
			"MEETPASS_RESET_TOKEN_TTL",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:meetpass.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 24*time.Hour {
			t.Fatalf("expected default session TTL 24h, got %v", cfg.SessionTTL)
		}
		if cfg.ResetTokenTTL != time.Hour {
			t.Fatalf("expected default reset TTL 1h, got %v", cfg.ResetTokenTTL)
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("MEETPASS_HTTP_PORT", "9090")
		t.Setenv("MEETPASS_SQLITE_DSN", "file:/tmp/meetpass.db")
		t.Setenv("MEETPASS_BASE_URL", "https://meetpass.example.edu/")
		t.Setenv("MEETPASS_SESSION_TTL", "12h")
		t.Setenv("MEETPASS_RESET_TOKEN_TTL", "30m")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/meetpass.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.BaseURL != "https://meetpass.example.edu" {
			t.Fatalf("expected trailing slash trimmed, got %q", cfg.BaseURL)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected 12h TTL, got %v", cfg.SessionTTL)
		}
		if cfg.ResetTokenTTL != 30*time.Minute {
			t.Fatalf("expected 30m TTL, got %v", cfg.ResetTokenTTL)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Setenv("MEETPASS_HTTP_PORT", "not-a-port")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for invalid port")
		}
	})

	t.Run("rejects non-positive durations", func(t *testing.T) {
		t.Setenv("MEETPASS_SESSION_TTL", "-1h")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for negative TTL")
		}
	})
}

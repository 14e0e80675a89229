package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the meeting
// pass service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	BaseURL       string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
}

// Load parses configuration values from the current process environment. A
// .env file in the working directory is loaded first when present so local
// development does not need exported variables.
//
// The loader applies sensible defaults for optional fields while validating
// the values that are set.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:meetpass.db",
		BaseURL:       "http://localhost:8080",
		SessionTTL:    24 * time.Hour,
		ResetTokenTTL: time.Hour,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("MEETPASS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "MEETPASS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("MEETPASS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if baseURL := strings.TrimSpace(os.Getenv("MEETPASS_BASE_URL")); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if ttlValue := strings.TrimSpace(os.Getenv("MEETPASS_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "MEETPASS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("MEETPASS_RESET_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "MEETPASS_RESET_TOKEN_TTL")
		} else {
			cfg.ResetTokenTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first if present; real
// environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   int
	DBPath string

	JWTSecret  string
	SessionTTL time.Duration
	// AdminEmails are given the Admin role when they sign up.
	AdminEmails []string
	// CookieSecure marks auth cookies Secure. Turn off only for plain-HTTP
	// local development.
	CookieSecure bool

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	ProfileTimeout time.Duration
	SafetyTimeout  time.Duration
	SessionIdleTTL time.Duration

	LogLevel slog.Level
}

// GitHubEnabled reports whether both OAuth credentials are set.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads the configuration. JWT_SECRET is required.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:             getEnv("DB_PATH", "data/asynchire.db"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminEmails:        splitList(os.Getenv("ADMIN_EMAILS")),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnv("PORT", "8080")); err != nil {
		return nil, fmt.Errorf("config: invalid PORT: %w", err)
	}
	cfg.GitHubCallbackURL = getEnv("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	if cfg.CookieSecure, err = strconv.ParseBool(getEnv("COOKIE_SECURE", "true")); err != nil {
		return nil, fmt.Errorf("config: invalid COOKIE_SECURE: %w", err)
	}

	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"SESSION_TTL", "1h", &cfg.SessionTTL},
		{"PROFILE_TIMEOUT", "6s", &cfg.ProfileTimeout},
		{"SAFETY_TIMEOUT", "12s", &cfg.SafetyTimeout},
		{"SESSION_IDLE_TTL", "30m", &cfg.SessionIdleTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("config: invalid %s: %w", d.key, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("config: %s must be positive", d.key)
		}
		*d.dst = v
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: invalid LOG_LEVEL: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

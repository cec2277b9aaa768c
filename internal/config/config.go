package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/acgh213/pointstracker/internal/auth"
)

type Config struct {
	Env           string
	Port          string
	DatabaseURL   string
	LogLevel      string
	AdminPassword string
	// TokenKey signs admin tokens. Derived from AdminPassword when empty.
	TokenKey      string
	MaxAttempts   int
	LockoutWindow time.Duration
	// TrustProxy takes the client address from forwarding headers. Only
	// enable it behind a proxy that overwrites them.
	TrustProxy bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:           getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "3000"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		TokenKey:      getEnv("ADMIN_TOKEN_KEY", ""),
	}

	var err error
	cfg.MaxAttempts, err = getEnvInt("LOGIN_MAX_ATTEMPTS", auth.DefaultMaxAttempts)
	if err != nil {
		return nil, err
	}
	cfg.LockoutWindow, err = getEnvDuration("LOGIN_LOCKOUT_WINDOW", auth.DefaultLockoutWindow)
	if err != nil {
		return nil, err
	}

	cfg.TrustProxy, err = getEnvBool("TRUST_PROXY", false)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required")
	}

	if len(cfg.AdminPassword) > auth.MaxSecretLength {
		return nil, fmt.Errorf("ADMIN_PASSWORD must be at most %d bytes", auth.MaxSecretLength)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// AuthConfig maps the environment onto the admin gate's settings.
func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		AdminSecret:   c.AdminPassword,
		SigningKey:    c.TokenKey,
		MaxAttempts:   c.MaxAttempts,
		LockoutWindow: c.LockoutWindow,
	}
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

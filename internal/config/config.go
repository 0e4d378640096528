package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds validated environment configuration.
type Config struct {
	// Listen port (defaults to "8080")
	Port string

	// Optional variables with defaults
	GoEnv          string
	LogLevel       string
	AllowedOrigins string

	// Room Coordinator knobs
	RoomCodeLength      int
	RoomCodeMaxAttempts int
	ConnectionSendBuf   int
	DefaultBanMinutes   int
	DefaultMuteMinutes  int

	// Rate Limits (ulule/limiter formatted strings, e.g. "100-M")
	RateLimitCreateCode string
	RateLimitWsUpgrade  string
}

// ValidateEnv reads and validates the environment variables and returns a Config object.
// Unset variables take their defaults; all invalid values are collected into one error.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errors []string

	// Optional: PORT (defaults to "8080"; if set, must be a valid port number)
	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	} else {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
		}
	}

	// Optional: GO_ENV (defaults to "production")
	cfg.GoEnv = os.Getenv("GO_ENV")
	if cfg.GoEnv == "" {
		cfg.GoEnv = "production"
	}

	// Optional: LOG_LEVEL (defaults to "info")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	cfg.RoomCodeLength = getEnvIntOrDefault("ROOM_CODE_LENGTH", 6)
	if cfg.RoomCodeLength < 1 {
		errors = append(errors, "ROOM_CODE_LENGTH must be positive")
	}

	cfg.RoomCodeMaxAttempts = getEnvIntOrDefault("ROOM_CODE_MAX_ATTEMPTS", 100)
	if cfg.RoomCodeMaxAttempts < 1 {
		errors = append(errors, "ROOM_CODE_MAX_ATTEMPTS must be positive")
	}

	cfg.ConnectionSendBuf = getEnvIntOrDefault("CONNECTION_SEND_BUFFER", 256)
	if cfg.ConnectionSendBuf < 1 {
		errors = append(errors, "CONNECTION_SEND_BUFFER must be positive")
	}

	cfg.DefaultBanMinutes = getEnvIntOrDefault("DEFAULT_BAN_MINUTES", 5)
	cfg.DefaultMuteMinutes = getEnvIntOrDefault("DEFAULT_MUTE_MINUTES", 5)

	// Rate Limits (Defaults: M = Minute)
	cfg.RateLimitCreateCode = getEnvOrDefault("RATE_LIMIT_CREATE_CODE", "100-M")
	cfg.RateLimitWsUpgrade = getEnvOrDefault("RATE_LIMIT_WS_UPGRADE", "20-M")

	// If there are validation errors, return them
	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	logValidatedConfig(cfg)

	return cfg, nil
}

// logValidatedConfig logs the validated configuration.
func logValidatedConfig(cfg *Config) {
	slog.Info("environment configuration validated successfully")
	slog.Info("configuration",
		"port", cfg.Port,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"allowed_origins", cfg.AllowedOrigins,
		"room_code_length", cfg.RoomCodeLength,
		"room_code_max_attempts", cfg.RoomCodeMaxAttempts,
		"rate_limit_create_code", cfg.RateLimitCreateCode,
	)
}

// AllowedOriginsList splits AllowedOrigins into a slice, falling back to
// localhost defaults for local development when the env var is unset.
func (c *Config) AllowedOriginsList() []string {
	if c.AllowedOrigins == "" {
		return []string{"http://localhost:3000"}
	}
	return strings.Split(c.AllowedOrigins, ",")
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns the parsed integer value of the environment variable
// or a default value if not set or unparseable.
func getEnvIntOrDefault(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all console configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// BackendURL is the WebSocket endpoint of the reservation backend.
	BackendURL string
	// RedisURL enables the shared feed store and event fan-out.
	// Empty keeps both in process memory.
	RedisURL string

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string

	FormTTL          time.Duration
	SubmitRateLimit  int
	EmitQueueSize    int
	ReconnectMaxWait time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "pretty"),
		BackendURL:       getEnv("BACKEND_WS_URL", "ws://localhost:3001/ws"),
		RedisURL:         getEnv("REDIS_URL", ""),
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		FormTTL:          time.Duration(getEnvInt("FORM_TTL_MINUTES", 30)) * time.Minute,
		SubmitRateLimit:  getEnvInt("SUBMIT_RATE_PER_MINUTE", 30),
		EmitQueueSize:    getEnvInt("EMIT_QUEUE_SIZE", 64),
		ReconnectMaxWait: time.Duration(getEnvInt("RECONNECT_MAX_SECONDS", 30)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt falls back on missing, malformed or non-positive values.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

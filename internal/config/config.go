package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port     string
	MongoURI string
	RedisURL string

	// Shared secret gating the sync ingress. Empty means every sync
	// request is rejected (fail closed).
	SyncAPISecret string

	// How long a pending sync request may sit unanswered before the
	// staleness sweep expires it.
	SyncPendingTTL time.Duration

	// Retention for append-only collections (activities, cost entries).
	RetentionDays int

	// CORS origins for the dashboard frontend (comma-separated).
	AllowedOrigins []string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	originsEnv := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	origins := strings.Split(originsEnv, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:           getEnv("PORT", "3001"),
		MongoURI:       getEnv("MONGODB_URI", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		SyncAPISecret:  getEnv("SYNC_API_SECRET", ""),
		SyncPendingTTL: getDurationEnv("SYNC_PENDING_TTL", 5*time.Minute),
		RetentionDays:  getIntEnv("RETENTION_DAYS", 90),
		AllowedOrigins: origins,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Backend session
	APIBaseURL string
	WSBaseURL  string
	UserID     string
	SessionID  string // watchlist session ("ws_id" on the wire)

	// Infrastructure (Redis and SQLite are optional: empty disables them)
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	ControlAddr   string

	// Intervals
	RefreshInterval time.Duration // baseline re-fetch cadence
	APITimeout      time.Duration

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		APIBaseURL: mustEnv("API_BASE_URL"),
		WSBaseURL:  mustEnv("WS_BASE_URL"),
		UserID:     mustEnv("USER_ID"),
		SessionID:  getEnv("WS_ID", "default"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		ControlAddr:   getEnv("CONTROL_ADDR", ":8085"),

		RefreshInterval: getDuration("REFRESH_INTERVAL", 30*time.Second),
		APITimeout:      getDuration("API_TIMEOUT", 7*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// StreamURL returns the full market stream endpoint for the session.
func (c *Config) StreamURL() string {
	return c.WSBaseURL + "/ws/market/" + c.SessionID
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Plain integers are read as seconds
		if n, nerr := strconv.Atoi(v); nerr == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		log.Printf("[config] invalid duration for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return d
}

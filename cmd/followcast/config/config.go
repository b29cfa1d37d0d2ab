// Package config implements the followcast server config.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all server configuration.
type Config struct {
	Listen     string
	GRPCListen string

	Storage       string
	DatabaseURL   string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	CORSOrigins string
	RateLimit   int

	ForecastDays    int
	MaxForecastDays int
	AlertWindow     int
	MilestoneStep   int
	ChangelogPath   string

	ShutdownTimeout time.Duration
	LogFormat       string
	LogLevel        string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Environment variables are used as fallbacks when flags are not provided.
// Exits with status 1 if the result does not pass Validate.
func ParseFlags() *Config {
	cfg := &Config{}

	// Server
	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")
	flag.StringVar(&cfg.GRPCListen, "grpc-listen", getEnv("GRPC_LISTEN", ""), "gRPC health listen address (empty disables)")
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second), "Graceful shutdown timeout")

	// Storage
	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "sqlite"), "Storage backend: memory, sqlite, postgres or redis")
	flag.StringVar(&cfg.DatabaseURL, "database-url", getEnv("DATABASE_URL", ""), "PostgreSQL connection string (required for postgres)")
	flag.StringVar(&cfg.SQLitePath, "sqlite-path", getEnv("SQLITE_PATH", "followers.db"), "SQLite database file")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.StringVar(&cfg.RedisPrefix, "redis-prefix", getEnv("REDIS_PREFIX", "followcast"), "Redis key prefix")

	// HTTP policy
	flag.StringVar(&cfg.CORSOrigins, "cors-origins", getEnv("CORS_ORIGINS", "http://localhost:3000"), "Comma-separated allowed CORS origins")
	flag.IntVar(&cfg.RateLimit, "rate-limit", getEnvInt("RATE_LIMIT", 100), "Requests per minute per client IP (0 disables)")

	// Analytics
	flag.IntVar(&cfg.ForecastDays, "forecast-days", getEnvInt("FORECAST_DAYS", 30), "Default forecast horizon in days")
	flag.IntVar(&cfg.MaxForecastDays, "max-forecast-days", getEnvInt("MAX_FORECAST_DAYS", 365), "Maximum forecast horizon in days")
	flag.IntVar(&cfg.AlertWindow, "alert-window", getEnvInt("ALERT_WINDOW", 7), "Number of recent entries used by alerts")
	flag.IntVar(&cfg.MilestoneStep, "milestone-step", getEnvInt("MILESTONE_STEP", 500), "Spacing between follower milestones")
	flag.StringVar(&cfg.ChangelogPath, "changelog", getEnv("CHANGELOG_PATH", ""), "Changelog JSON file (empty uses the built-in notes)")

	// Logging
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Storage {
	case "memory", "sqlite", "redis":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("--database-url is required for postgres storage")
		}
	default:
		return fmt.Errorf("--storage must be memory, sqlite, postgres or redis, got %q", c.Storage)
	}

	if c.Storage == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("--sqlite-path is required for sqlite storage")
	}
	if c.MaxForecastDays < 1 {
		return fmt.Errorf("--max-forecast-days must be at least 1, got %d", c.MaxForecastDays)
	}
	if c.ForecastDays < 1 || c.ForecastDays > c.MaxForecastDays {
		return fmt.Errorf("--forecast-days must be between 1 and %d, got %d", c.MaxForecastDays, c.ForecastDays)
	}
	if c.AlertWindow < 2 {
		return fmt.Errorf("--alert-window must be at least 2, got %d", c.AlertWindow)
	}
	if c.MilestoneStep < 1 {
		return fmt.Errorf("--milestone-step must be positive, got %d", c.MilestoneStep)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("--rate-limit must not be negative, got %d", c.RateLimit)
	}
	return nil
}

// Origins splits CORSOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full environment surface of the service. Postgres is the
// only hard requirement; Redis (asset cache) and NATS (transaction events)
// are optional and the service degrades gracefully without them.
type Config struct {
	DatabaseURL    string
	Port           string
	WebConcurrency int
	RedisAddr      string
	NatsURL        string
	LockTimeout    time.Duration
}

// New loads and validates configuration from environment variables.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           getEnv("PORT", "8080"),
		WebConcurrency: getEnvInt("WEB_CONCURRENCY", 4),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		NatsURL:        os.Getenv("NATS_URL"),
		LockTimeout:    time.Duration(getEnvInt("LOCK_TIMEOUT_MS", 3000)) * time.Millisecond,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing required env: DATABASE_URL")
	}
	cfg.DatabaseURL = NormalizeDatabaseURL(cfg.DatabaseURL)

	if cfg.WebConcurrency < 1 {
		return nil, fmt.Errorf("WEB_CONCURRENCY must be at least 1, got %d", cfg.WebConcurrency)
	}
	if cfg.LockTimeout < time.Millisecond {
		return nil, fmt.Errorf("LOCK_TIMEOUT_MS must be at least 1")
	}

	return cfg, nil
}

// NormalizeDatabaseURL rewrites the short postgres:// scheme to
// postgresql://. Hosting platforms hand out the short form and not every
// driver accepts it; pgx takes both, so normalizing is free.
func NormalizeDatabaseURL(dsn string) string {
	if rest, ok := strings.CutPrefix(dsn, "postgres://"); ok {
		return "postgresql://" + rest
	}
	return dsn
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Journal source kinds
const (
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourceRemote   = "remote"
	SourceFixture  = "fixture"
)

// Config holds all configuration for the application
// SSOT: environment variables are read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Journal record source
	Journal JournalConfig

	// Heatmap aggregation
	Heatmap HeatmapConfig

	// Session store
	Session SessionConfig

	// API rate limit (per client, token bucket)
	RateLimit RateLimitConfig

	// Scheduled jobs
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// JournalConfig selects where journal records come from
type JournalConfig struct {
	Source      string // postgres, sqlite, remote, fixture
	SQLitePath  string
	RemoteURL   string
	RemoteToken string
	FixtureSeed int64
}

// HeatmapConfig holds aggregation settings
type HeatmapConfig struct {
	LevelsFile   string // optional YAML with activity level thresholds
	Timezone     string // zone used to decide "today"
	PendingToday bool   // an empty today does not break a streak through yesterday
	CacheTTL     time.Duration
}

// SessionConfig holds session store settings
type SessionConfig struct {
	TTL       time.Duration
	IssuerKey string // shared secret of the external auth service
}

// RateLimitConfig holds API rate limit settings
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SchedulerConfig holds scheduled job settings
type SchedulerConfig struct {
	Users      []string // processed when the source cannot list active users
	MaxRetries int
	RetryDelay time.Duration
}

// Load reads configuration from environment variables
// SSOT: the only function calling os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Journal: JournalConfig{
			Source:      getEnv("JOURNAL_SOURCE", SourcePostgres),
			SQLitePath:  getEnv("SQLITE_PATH", ""),
			RemoteURL:   getEnv("JOURNAL_API_URL", ""),
			RemoteToken: getEnv("JOURNAL_API_TOKEN", ""),
			FixtureSeed: int64(getEnvAsInt("FIXTURE_SEED", 42)),
		},

		Heatmap: HeatmapConfig{
			LevelsFile:   getEnv("HEATMAP_LEVELS_FILE", ""),
			Timezone:     getEnv("HEATMAP_TIMEZONE", "UTC"),
			PendingToday: getEnvAsBool("HEATMAP_PENDING_TODAY", false),
			CacheTTL:     getEnvAsDuration("HEATMAP_CACHE_TTL", "10m"),
		},

		Session: SessionConfig{
			TTL:       getEnvAsDuration("SESSION_TTL", "168h"),
			IssuerKey: getEnv("SESSION_ISSUER_KEY", ""),
		},

		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("API_RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("API_RATE_LIMIT_BURST", 20),
		},

		Scheduler: SchedulerConfig{
			Users:      getEnvAsList("SCHEDULER_USERS"),
			MaxRetries: getEnvAsInt("SCHEDULER_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("SCHEDULER_RETRY_DELAY", "1m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	switch c.Journal.Source {
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for journal source %q", c.Journal.Source)
		}
	case SourceSQLite:
		if c.Journal.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for journal source %q", c.Journal.Source)
		}
	case SourceRemote:
		if c.Journal.RemoteURL == "" {
			return fmt.Errorf("JOURNAL_API_URL is required for journal source %q", c.Journal.Source)
		}
	case SourceFixture:
	default:
		return fmt.Errorf("JOURNAL_SOURCE must be one of: postgres, sqlite, remote, fixture")
	}

	if _, err := time.LoadLocation(c.Heatmap.Timezone); err != nil {
		return fmt.Errorf("HEATMAP_TIMEZONE: %w", err)
	}

	if c.Env == "production" && c.Session.IssuerKey == "" {
		return fmt.Errorf("SESSION_ISSUER_KEY is required in production")
	}

	return nil
}

// Location returns the zone used to decide the current calendar day
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Heatmap.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Search   SearchConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SearchConfig struct {
	// ChunkSize is the target chunk length in characters when indexing.
	ChunkSize int
	// Timeout bounds a single search attempt before fallback kicks in.
	Timeout time.Duration
	// SlowThreshold marks operations as slow in performance stats.
	SlowThreshold time.Duration
	// SuggestionTTL bounds how long cached suggestion lists stay fresh.
	SuggestionTTL time.Duration
	// RateLimit / RateWindow define the per-caller sliding window.
	RateLimit  int
	RateWindow time.Duration
	// HistoryRetention is how long search history entries are kept.
	HistoryRetention time.Duration
}

type LoggingConfig struct {
	Level     string
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
	Stdout    bool
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	chunkSize, err := getEnvInt("SEARCH_CHUNK_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_CHUNK_SIZE: %w", err)
	}

	searchTimeout, err := getEnvDuration("SEARCH_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_TIMEOUT: %w", err)
	}

	slowThreshold, err := getEnvDuration("SEARCH_SLOW_THRESHOLD", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_SLOW_THRESHOLD: %w", err)
	}

	suggestionTTL, err := getEnvDuration("SUGGESTION_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid SUGGESTION_CACHE_TTL: %w", err)
	}

	rateLimit, err := getEnvInt("RATE_LIMIT", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}

	rateWindow, err := getEnvDuration("RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_WINDOW: %w", err)
	}

	historyRetention, err := getEnvDuration("HISTORY_RETENTION", 90*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_RETENTION: %w", err)
	}

	logMaxSize, err := getEnvInt("LOG_MAX_SIZE_MB", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_MAX_SIZE_MB: %w", err)
	}

	logMaxFiles, err := getEnvInt("LOG_MAX_FILES", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_MAX_FILES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Search: SearchConfig{
			ChunkSize:        chunkSize,
			Timeout:          searchTimeout,
			SlowThreshold:    slowThreshold,
			SuggestionTTL:    suggestionTTL,
			RateLimit:        rateLimit,
			RateWindow:       rateWindow,
			HistoryRetention: historyRetention,
		},
		Logging: LoggingConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			FilePath:  getEnv("LOG_FILE", ""),
			MaxSizeMB: logMaxSize,
			MaxFiles:  logMaxFiles,
			Stdout:    getEnv("LOG_STDOUT", "true") != "false",
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

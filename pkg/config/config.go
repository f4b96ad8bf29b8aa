package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External data sources
	FPL       FPLConfig
	Understat UnderstatConfig

	// Prediction engine
	Model ModelConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FPLConfig holds Fantasy Premier League API configuration.
type FPLConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	BootstrapTTL      time.Duration
	LiveTTL           time.Duration
}

// UnderstatConfig holds Understat scraping configuration.
type UnderstatConfig struct {
	BaseURL string
	League  string
	Season  string
}

// ModelConfig holds prediction engine settings. Modeling knobs (history
// minimums, training thresholds, weights) live in the rules YAML instead.
type ModelConfig struct {
	Version      string
	RulesPath    string // formation/model rules YAML
	SolverBudget time.Duration
	Staleness    int // rounds a fitted artifact may be reused for
	Workers      int // parallel backtest workers (1 = sequential)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External data sources
		FPL: FPLConfig{
			BaseURL:           getEnv("FPL_BASE_URL", "https://fantasy.premierleague.com/api"),
			RequestsPerSecond: getEnvAsFloat("FPL_REQUESTS_PER_SECOND", 2.0),
			BootstrapTTL:      getEnvAsDuration("FPL_BOOTSTRAP_TTL", "1h"),
			LiveTTL:           getEnvAsDuration("FPL_LIVE_TTL", "1m"),
		},

		Understat: UnderstatConfig{
			BaseURL: getEnv("UNDERSTAT_BASE_URL", "https://understat.com"),
			League:  getEnv("UNDERSTAT_LEAGUE", "EPL"),
			Season:  getEnv("UNDERSTAT_SEASON", "2025"),
		},

		// Prediction engine
		Model: ModelConfig{
			Version:      getEnv("MODEL_VERSION", "v1"),
			RulesPath:    getEnv("RULES_PATH", "configs/rules.yaml"),
			SolverBudget: getEnvAsDuration("SOLVER_BUDGET", "5s"),
			Staleness:    getEnvAsInt("MODEL_STALENESS", 0),
			Workers:      getEnvAsInt("BACKTEST_WORKERS", 1),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Model.Workers < 1 {
		return fmt.Errorf("BACKTEST_WORKERS must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

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

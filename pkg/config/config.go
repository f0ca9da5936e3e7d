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

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Database (선택: URL이 비어 있으면 저장 생략)
	Database DatabaseConfig

	// Redis (선택: 추론 결과 캐시)
	Redis RedisConfig

	// Sentiment / topic inference collaborator
	Inference InferenceConfig

	// Pipeline defaults
	Pipeline PipelineConfig

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

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// InferenceConfig holds the sentiment/topic collaborator endpoint
type InferenceConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	BatchSize         int
	RequestsPerSecond int
	MaxRetries        int
	CacheTTL          time.Duration
}

// Enabled reports whether an inference endpoint is configured
func (i InferenceConfig) Enabled() bool {
	return i.BaseURL != ""
}

// PipelineConfig holds default run parameters
type PipelineConfig struct {
	Ticker          string
	PricesPath      string
	PostsPath       string
	OutputDir       string
	ModelConfigPath string
	TrainYears      []int
	TestYears       []int
	Schedule        string // cron 표현식 (초 포함)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Inference: InferenceConfig{
			BaseURL:           getEnv("INFERENCE_BASE_URL", ""),
			APIKey:            getEnv("INFERENCE_API_KEY", ""),
			Timeout:           getEnvAsDuration("INFERENCE_TIMEOUT", "30s"),
			BatchSize:         getEnvAsInt("INFERENCE_BATCH_SIZE", 64),
			RequestsPerSecond: getEnvAsInt("INFERENCE_RPS", 5),
			MaxRetries:        getEnvAsInt("INFERENCE_MAX_RETRIES", 3),
			CacheTTL:          getEnvAsDuration("INFERENCE_CACHE_TTL", "168h"),
		},

		Pipeline: PipelineConfig{
			Ticker:          getEnv("PIPELINE_TICKER", "TSLA"),
			PricesPath:      getEnv("PIPELINE_PRICES", "data/prices.csv"),
			PostsPath:       getEnv("PIPELINE_POSTS", "data/posts.csv"),
			OutputDir:       getEnv("PIPELINE_OUTPUT_DIR", "output"),
			ModelConfigPath: getEnv("MODEL_CONFIG", ""),
			TrainYears:      getEnvAsIntSlice("PIPELINE_TRAIN_YEARS", []int{2024}),
			TestYears:       getEnvAsIntSlice("PIPELINE_TEST_YEARS", []int{2025}),
			Schedule:        getEnv("PIPELINE_SCHEDULE", "0 30 18 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Inference.BatchSize <= 0 {
		return fmt.Errorf("INFERENCE_BATCH_SIZE must be positive")
	}
	if c.Inference.RequestsPerSecond <= 0 {
		return fmt.Errorf("INFERENCE_RPS must be positive")
	}

	if len(c.Pipeline.TrainYears) == 0 || len(c.Pipeline.TestYears) == 0 {
		return fmt.Errorf("PIPELINE_TRAIN_YEARS and PIPELINE_TEST_YEARS are required")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsIntSlice parses a comma-separated list ("2023,2024")
func getEnvAsIntSlice(key string, defaultValue []int) []int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	values, err := ParseIntList(valueStr)
	if err != nil || len(values) == 0 {
		return defaultValue
	}

	return values
}

// ParseIntList parses a comma-separated integer list
func ParseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

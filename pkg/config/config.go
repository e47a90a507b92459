package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Data source kinds
const (
	DataSourceCSV      = "csv"
	DataSourcePostgres = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Data
	Data DataConfig

	// Database (DATA_SOURCE=postgres 일 때만 필요)
	Database DatabaseConfig

	// Redis (artifact cache)
	Redis RedisConfig

	// Model server (external single-step predictor)
	ModelServer ModelServerConfig

	// Analytics engine tuning
	Analytics AnalyticsConfig

	// Accounts (JWT)
	Auth AuthConfig

	// Scheduler
	ReloadSchedule string
	ArtifactTTL    time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// DataConfig holds dataset locations
type DataConfig struct {
	Source        string // csv | postgres
	StockDataPath string
	IndexDataPath string
	SectorMapPath string
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ModelServerConfig holds the remote predictor settings
type ModelServerConfig struct {
	BaseURL        string
	ModelPrefix    string  // 모델 이름 = prefix + symbol
	RequestsPerSec float64 // 0 = 제한 없음
	Timeout        time.Duration
}

// AnalyticsConfig holds iteration caps and windows for the core engine
type AnalyticsConfig struct {
	ForecastWindow      int
	OptimizerIterations int
	OptimizerStep       float64
	EigenMaxIterations  int
	EigenTolerance      float64
	DefaultThreshold    float64
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	// production 필수. 비어 있으면 프로세스마다 임의 키
	JWTSecret string
	TokenTTL  time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		Data: DataConfig{
			Source:        getEnv("DATA_SOURCE", DataSourceCSV),
			StockDataPath: getEnv("STOCK_DATA_PATH", "datasets/nifty50_stocks_cleaned.csv"),
			IndexDataPath: getEnv("INDEX_DATA_PATH", "datasets/nifty_index_data.csv"),
			SectorMapPath: getEnv("SECTOR_MAP_PATH", "datasets/nifty50_tickers_and_sectors.csv"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
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

		ModelServer: ModelServerConfig{
			BaseURL:        getEnv("MODEL_SERVER_URL", "http://localhost:8501"),
			ModelPrefix:    getEnv("MODEL_PREFIX", "lstm_"),
			RequestsPerSec: getEnvAsFloat("MODEL_SERVER_RPS", 50),
			Timeout:        getEnvAsDuration("MODEL_SERVER_TIMEOUT", "10s"),
		},

		Analytics: AnalyticsConfig{
			ForecastWindow:      getEnvAsInt("FORECAST_WINDOW", 60),
			OptimizerIterations: getEnvAsInt("OPTIMIZER_ITERATIONS", 5000),
			OptimizerStep:       getEnvAsFloat("OPTIMIZER_STEP", 0.001),
			EigenMaxIterations:  getEnvAsInt("EIGEN_MAX_ITER", 500),
			EigenTolerance:      getEnvAsFloat("EIGEN_TOLERANCE", 1e-6),
			DefaultThreshold:    getEnvAsFloat("CORRELATION_THRESHOLD", 0.6),
		},

		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", "24h"),
		},

		ReloadSchedule: getEnv("RELOAD_SCHEDULE", "0 30 18 * * 1-5"),
		ArtifactTTL:    getEnvAsDuration("ARTIFACT_TTL", "1h"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Data.Source {
	case DataSourceCSV:
		if c.Data.StockDataPath == "" || c.Data.IndexDataPath == "" || c.Data.SectorMapPath == "" {
			return fmt.Errorf("STOCK_DATA_PATH, INDEX_DATA_PATH and SECTOR_MAP_PATH are required for csv source")
		}
	case DataSourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres source")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: csv, postgres")
	}

	if c.Analytics.ForecastWindow < 1 {
		return fmt.Errorf("FORECAST_WINDOW must be > 0")
	}
	if c.Analytics.OptimizerIterations < 1 || c.Analytics.OptimizerStep <= 0 {
		return fmt.Errorf("OPTIMIZER_ITERATIONS and OPTIMIZER_STEP must be > 0")
	}
	if c.Analytics.EigenMaxIterations < 1 || c.Analytics.EigenTolerance <= 0 {
		return fmt.Errorf("EIGEN_MAX_ITER and EIGEN_TOLERANCE must be > 0")
	}
	if c.Analytics.DefaultThreshold < 0 || c.Analytics.DefaultThreshold > 1 {
		return fmt.Errorf("CORRELATION_THRESHOLD must be between 0 and 1")
	}

	if c.Env == "production" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}

	return nil
}

// IsProduction reports whether ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
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

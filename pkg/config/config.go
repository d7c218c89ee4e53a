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
	// Server
	Port string
	Env  string // development, staging, production

	// AllowedOrigins WebSocket 허용 Origin (비어 있으면 같은 호스트만, "*"는 전체 허용)
	AllowedOrigins []string

	// Engine (수치 엔진 파라미터)
	Engine EngineConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Naver NaverConfig

	// Scheduler
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// EngineConfig holds the numeric constants handed to the optimization engine.
// 엔진 내부에서 상수를 하드코딩하지 않고 여기서 주입
type EngineConfig struct {
	PeriodsPerYear      float64 // 252 (일간), 12 (월간)
	ConditionThreshold  float64 // 공분산 조건수 상한
	VolatilityFloor     float64 // 이 값 미만이면 Sharpe = 0
	MarketVarianceFloor float64 // 이 값 미만이면 beta = 0
	RiskFreeRate        float64 // 연율 무위험수익률 (조회 실패 시 fallback)
	FrontierPoints      int
	FrontierWorkers     int

	// Solver
	SolverMaxIterations  int
	SolverFeasibilityTol float64
	SolverFunctionTol    float64
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

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL        string
	ChartURL       string
	RiskFreeCode   string  // 무위험수익률 지표 코드 (국고채 3년)
	RequestsPerSec float64 // 요청 속도 제한
	Timeout        time.Duration
}

// ScheduleConfig holds the scheduled re-optimization settings
type ScheduleConfig struct {
	Cron         string   // cron 표현식 (초 포함)
	Codes        []string // 재계산 대상 종목
	MarketCode   string   // SML 시장 대리지표
	LookbackDays int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", nil),

		Engine: EngineConfig{
			PeriodsPerYear:       getEnvAsFloat("PERIODS_PER_YEAR", 252),
			ConditionThreshold:   getEnvAsFloat("CONDITION_THRESHOLD", 1e10),
			VolatilityFloor:      getEnvAsFloat("VOLATILITY_FLOOR", 1e-10),
			MarketVarianceFloor:  getEnvAsFloat("MARKET_VARIANCE_FLOOR", 1e-10),
			RiskFreeRate:         getEnvAsFloat("RISK_FREE_RATE", 0.045),
			FrontierPoints:       getEnvAsInt("FRONTIER_POINTS", 100),
			FrontierWorkers:      getEnvAsInt("FRONTIER_WORKERS", 4),
			SolverMaxIterations:  getEnvAsInt("SOLVER_MAX_ITERATIONS", 100),
			SolverFeasibilityTol: getEnvAsFloat("SOLVER_FEASIBILITY_TOL", 1e-8),
			SolverFunctionTol:    getEnvAsFloat("SOLVER_FUNCTION_TOL", 1e-10),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
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

		Naver: NaverConfig{
			BaseURL:        getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartURL:       getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			RiskFreeCode:   getEnv("NAVER_RISK_FREE_CODE", "IRR_GOVT03Y"),
			RequestsPerSec: getEnvAsFloat("NAVER_REQUESTS_PER_SEC", 5),
			Timeout:        getEnvAsDuration("NAVER_TIMEOUT", "10s"),
		},

		Schedule: ScheduleConfig{
			Cron:         getEnv("SCHEDULE_CRON", "0 30 18 * * 1-5"),
			Codes:        getEnvAsList("SCHEDULE_CODES", nil),
			MarketCode:   getEnv("SCHEDULE_MARKET_CODE", ""),
			LookbackDays: getEnvAsInt("SCHEDULE_LOOKBACK_DAYS", 730),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return c.Engine.Validate()
}

// Validate checks the engine constants
func (e EngineConfig) Validate() error {
	if e.PeriodsPerYear <= 0 {
		return fmt.Errorf("PERIODS_PER_YEAR must be > 0, got %v", e.PeriodsPerYear)
	}
	if e.ConditionThreshold <= 1 {
		return fmt.Errorf("CONDITION_THRESHOLD must be > 1, got %v", e.ConditionThreshold)
	}
	if e.VolatilityFloor < 0 || e.MarketVarianceFloor < 0 {
		return fmt.Errorf("floors must be >= 0")
	}
	if e.FrontierPoints < 2 {
		return fmt.Errorf("FRONTIER_POINTS must be >= 2, got %d", e.FrontierPoints)
	}
	if e.FrontierWorkers < 1 {
		return fmt.Errorf("FRONTIER_WORKERS must be >= 1, got %d", e.FrontierWorkers)
	}
	if e.SolverMaxIterations < 1 {
		return fmt.Errorf("SOLVER_MAX_ITERATIONS must be >= 1, got %d", e.SolverMaxIterations)
	}
	if e.SolverFeasibilityTol <= 0 || e.SolverFunctionTol <= 0 {
		return fmt.Errorf("solver tolerances must be > 0")
	}
	return nil
}

// DefaultEngine returns the engine constants without touching the environment.
// 테스트와 라이브러리 사용자를 위한 기본값
func DefaultEngine() EngineConfig {
	return EngineConfig{
		PeriodsPerYear:       252,
		ConditionThreshold:   1e10,
		VolatilityFloor:      1e-10,
		MarketVarianceFloor:  1e-10,
		RiskFreeRate:         0.045,
		FrontierPoints:       100,
		FrontierWorkers:      4,
		SolverMaxIterations:  100,
		SolverFeasibilityTol: 1e-8,
		SolverFunctionTol:    1e-10,
	}
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, e.g. "005930,000660"
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                  string
	Environment           string
	FrontendDir           string
	HRAPIBaseURL          string
	HRAPITimeout          time.Duration
	JWTSecret             string
	MaxBodyBytes          int64
	MaxUploadBytes        int64
	RateLimitPerMinute    int
	DupCheckDebounce      time.Duration
	DupCheckRatePerSecond int
	RefCacheTTL           time.Duration
	RedisAddr             string
	CacheEncryptionKey    string
	FormIdleTimeout       time.Duration
	FormSweepInterval     time.Duration
	MetricsEnabled        bool
}

// Load reads .env files when present and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:                  getEnv("APP_ADDR", ":8080"),
		Environment:           getEnv("APP_ENV", "development"),
		FrontendDir:           getEnv("FRONTEND_DIR", "frontend/dist"),
		HRAPIBaseURL:          getEnv("HR_API_BASE_URL", ""),
		HRAPITimeout:          getEnvDuration("HR_API_TIMEOUT", 30*time.Second),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		MaxBodyBytes:          int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_BYTES", 10485760)),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 600),
		DupCheckDebounce:      getEnvDuration("DUP_CHECK_DEBOUNCE", 400*time.Millisecond),
		DupCheckRatePerSecond: getEnvInt("DUP_CHECK_RATE_PER_SECOND", 5),
		RefCacheTTL:           getEnvDuration("REF_CACHE_TTL", 10*time.Minute),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		CacheEncryptionKey:    getEnv("CACHE_ENCRYPTION_KEY", ""),
		FormIdleTimeout:       getEnvDuration("FORM_IDLE_TIMEOUT", 30*time.Minute),
		FormSweepInterval:     getEnvDuration("FORM_SWEEP_INTERVAL", time.Minute),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HRAPIBaseURL) == "" {
		return fmt.Errorf("HR_API_BASE_URL is required")
	}
	if parsed, err := url.Parse(c.HRAPIBaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("HR_API_BASE_URL must be an absolute URL")
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.IsProduction() && c.RedisAddr != "" && strings.TrimSpace(c.CacheEncryptionKey) == "" {
		return fmt.Errorf("CACHE_ENCRYPTION_KEY must be set when a shared redis cache is used in production")
	}
	if c.HRAPITimeout <= 0 {
		return fmt.Errorf("HR_API_TIMEOUT must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be smaller than MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.DupCheckRatePerSecond <= 0 {
		return fmt.Errorf("DUP_CHECK_RATE_PER_SECOND must be positive")
	}
	if c.FormIdleTimeout <= 0 || c.FormSweepInterval <= 0 {
		return fmt.Errorf("FORM_IDLE_TIMEOUT and FORM_SWEEP_INTERVAL must be positive")
	}
	return nil
}

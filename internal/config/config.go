package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// Database
	DbDSN             string
	DbMaxOpenConns    int
	DbMaxIdleConns    int
	DbConnMaxLifetime time.Duration
	DbAutoMigrate     bool

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Bootstrap administrator, created at startup when both are set
	AdminEmail    string
	AdminPassword string

	// Server
	ApiPort            string
	ServiceApiPort     string // empty disables the internal service API
	LogLevel           string
	CorsAllowedOrigins []string

	// FX
	FxBlueDollarURL   string
	FxHTTPTimeout     time.Duration
	FxRefreshInterval time.Duration
	FxCacheTTL        time.Duration

	// Email
	SmtpHost         string
	SmtpPort         int
	SmtpUsername     string
	SmtpPassword     string
	SmtpFromAddress  string
	NotifyAddress    string
	EmailArchivePath string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	DocumentBaseURL    string

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getSeconds := func(key, defaultValue string) (time.Duration, error) {
		n, err := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return time.Duration(n) * time.Second, nil
	}

	cfg.DbDSN, err = getRequiredEnv("DB_DSN")
	if err != nil {
		return nil, err
	}
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "")
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", "")
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", "")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.FxBlueDollarURL = getEnv("FX_BLUE_DOLLAR_URL", "https://dolarapi.com/v1/dolares/blue")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@brixar.com.ar")
	cfg.NotifyAddress = getEnv("NOTIFY_ADDRESS", "ventas@brixar.com.ar")
	cfg.EmailArchivePath = getEnv("EMAIL_ARCHIVE_PATH", "")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.DocumentBaseURL = getEnv("DOCUMENT_BASE_URL", "")
	cfg.AppName = getEnv("APP_NAME", "Brixar")

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.CorsAllowedOrigins = append(cfg.CorsAllowedOrigins, trimmed)
		}
	}

	cfg.DbAutoMigrate, err = strconv.ParseBool(getEnv("DB_AUTO_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}

	cfg.DbMaxOpenConns, err = strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	cfg.DbMaxIdleConns, err = strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	cfg.DbConnMaxLifetime, err = getSeconds("DB_CONN_MAX_LIFETIME_SECONDS", "300")
	if err != nil {
		return nil, err
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.JwtTTL, err = getSeconds("JWT_TTL_SECONDS", "86400")
	if err != nil {
		return nil, err
	}

	cfg.FxHTTPTimeout, err = getSeconds("FX_HTTP_TIMEOUT_SECONDS", "10")
	if err != nil {
		return nil, err
	}
	cfg.FxCacheTTL, err = getSeconds("FX_CACHE_TTL_SECONDS", "600")
	if err != nil {
		return nil, err
	}

	refreshMinutes, err := strconv.ParseInt(getEnv("FX_REFRESH_INTERVAL_MINUTES", "30"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FX_REFRESH_INTERVAL_MINUTES: %w", err)
	}
	if refreshMinutes <= 0 {
		return nil, fmt.Errorf("invalid FX_REFRESH_INTERVAL_MINUTES: must be positive")
	}
	cfg.FxRefreshInterval = time.Duration(refreshMinutes) * time.Minute

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}

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
	RunMode      string // Set via flag, not env
	MockServices bool
	LogLevel     string
	LogFormat    string

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PageCacheTTL  time.Duration

	// JWT
	JwtSecret       string
	JwtTTL          time.Duration
	CaptchaTokenTTL time.Duration

	// Server
	ApiPort            string
	ServiceApiPort     string
	CORSAllowedOrigins []string

	// Cloudflare
	CloudflareTurnstileSecretKey string
	CloudflareSiteVerifyURL      string

	// Email
	SmtpHost          string
	SmtpPort          int
	SmtpUsername      string
	SmtpPassword      string
	SmtpFromAddress   string
	NotificationEmail string // Falls back to the agent's email when empty

	// Blob store (S3 or S3-compatible)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	S3Region           string
	S3Bucket           string
	S3Endpoint         string
	S3UsePathStyle     bool
	S3PublicBaseURL    string

	// Images
	ImageMaxCount          int
	ImageMaxSizeMB         int
	ImageMaxDimension      int
	ImageUploadConcurrency int
	BlobCallTimeout        time.Duration
	UploadMaxAttempts      int
	UploadRetryDelay       time.Duration

	// Search
	MeiliHost   string
	MeiliAPIKey string
	MeiliIndex  string

	// App Defaults
	AppName        string
	DefaultCountry string

	// Rate Limiting Defaults (public inquiry submission)
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// ImageMaxSizeBytes returns the per-file upload limit in bytes.
func (c *Config) ImageMaxSizeBytes() int64 {
	return int64(c.ImageMaxSizeMB) * 1024 * 1024
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getBool := func(key string, defaultValue bool) (bool, error) {
		raw := getEnv(key, strconv.FormatBool(defaultValue))
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %w", key, err)
		}
		return v, nil
	}

	getSeconds := func(key, defaultValue string) (time.Duration, error) {
		secs, err := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return time.Duration(secs) * time.Second, nil
	}

	// Load basic string values
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "rzproperty")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	cfg.CloudflareTurnstileSecretKey = getEnv("CLOUDFLARE_TURNSTILE_SECRET_KEY", "")
	cfg.CloudflareSiteVerifyURL = getEnv("CLOUDFLARE_SITEVERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@rzproperty.example.com")
	cfg.NotificationEmail = getEnv("NOTIFICATION_EMAIL", "")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.S3Region = getEnv("S3_REGION", "ap-southeast-1")
	cfg.S3Bucket = getEnv("S3_BUCKET", "property-images")
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3PublicBaseURL = strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/")
	cfg.MeiliHost = getEnv("MEILI_HOST", "")
	cfg.MeiliAPIKey = getEnv("MEILI_API_KEY", "")
	cfg.MeiliIndex = getEnv("MEILI_INDEX", "properties")
	cfg.AppName = getEnv("APP_NAME", "RZ Property")
	cfg.DefaultCountry = getEnv("DEFAULT_COUNTRY", "Malaysia")

	if cfg.S3PublicBaseURL == "" && cfg.S3Endpoint == "" {
		cfg.S3PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	} else if cfg.S3PublicBaseURL == "" {
		cfg.S3PublicBaseURL = strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}

	if cfg.MockServices, err = getBool("MOCK_SERVICES", false); err != nil {
		return nil, err
	}
	if cfg.S3UsePathStyle, err = getBool("S3_USE_PATH_STYLE", cfg.S3Endpoint != ""); err != nil {
		return nil, err
	}

	// Load numeric and time duration values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	if cfg.PageCacheTTL, err = getSeconds("PAGE_CACHE_TTL_SECONDS", "300"); err != nil {
		return nil, err
	}
	if cfg.JwtTTL, err = getSeconds("JWT_TTL_SECONDS", "43200"); err != nil {
		return nil, err
	}
	if cfg.CaptchaTokenTTL, err = getSeconds("CAPTCHA_TOKEN_TTL", "1200"); err != nil {
		return nil, err
	}
	if cfg.BlobCallTimeout, err = getSeconds("BLOB_CALL_TIMEOUT_SECONDS", "30"); err != nil {
		return nil, err
	}

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.ImageMaxCount, err = strconv.Atoi(getEnv("IMAGE_MAX_COUNT", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_COUNT: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	cfg.ImageUploadConcurrency, err = strconv.Atoi(getEnv("IMAGE_UPLOAD_CONCURRENCY", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_UPLOAD_CONCURRENCY: %w", err)
	}

	cfg.UploadMaxAttempts, err = strconv.Atoi(getEnv("UPLOAD_MAX_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_ATTEMPTS: %w", err)
	}

	retryDelayMs, err := strconv.ParseInt(getEnv("UPLOAD_RETRY_DELAY_MS", "250"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_RETRY_DELAY_MS: %w", err)
	}
	cfg.UploadRetryDelay = time.Duration(retryDelayMs) * time.Millisecond

	// Rate Limiting
	cfg.RateLimitSoftBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_BUCKET_SIZE", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitSoftRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_REFILL_RATE", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_REFILL_RATE: %w", err)
	}
	cfg.RateLimitHardBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_BUCKET_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitHardRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_REFILL_RATE", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_REFILL_RATE: %w", err)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

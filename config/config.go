package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Stripe   StripeConfig
	Email    EmailConfig
	Abuse    AbuseConfig
	Consent  ConsentConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/campcard?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the S3 media bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	MediaBucket          string
	PresignExpireMinutes int
}

// StripeConfig for card subscription payments.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// EmailConfig for outbound notification mail.
type EmailConfig struct {
	FromAddress string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
}

// AbuseConfig holds redemption anti-abuse policy thresholds.
// All values are tunable product policy, not code constants.
type AbuseConfig struct {
	MaxDevicesPerToken        int           // distinct device fingerprints allowed per redemption token
	MaxIPsPerToken            int           // distinct IP addresses allowed per redemption token
	VelocityWindow            time.Duration // trailing window for merchant velocity/user-reuse checks
	MaxMerchantScansPerWindow int           // merchant scan count above this flags bulk scanning
	MinScansForUserRatio      int           // user-reuse ratio is only evaluated at or above this scan count
	MinDistinctUserPercent    int           // distinct users must be at least this percent of window scans
	MaxTravelSpeedKmh         float64       // implied speed above this flags impossible travel
	RejectFlagged             bool          // when true, flagged scans deny the redemption instead of review
}

// ConsentConfig holds COPPA parental consent settings.
type ConsentConfig struct {
	TokenExpiryHours int
	ApprovalBaseURL  string // front-end URL the consent email links to
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/campcard?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "campcard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			MediaBucket:          getEnv("AWS_S3_MEDIA_BUCKET", "campcard-media"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@campcard.org"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Camp Card"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
		},
		Abuse: AbuseConfig{
			MaxDevicesPerToken:        getEnvInt("ABUSE_MAX_DEVICES_PER_TOKEN", 1),
			MaxIPsPerToken:            getEnvInt("ABUSE_MAX_IPS_PER_TOKEN", 2),
			VelocityWindow:            time.Duration(getEnvInt("ABUSE_VELOCITY_WINDOW_MIN", 60)) * time.Minute,
			MaxMerchantScansPerWindow: getEnvInt("ABUSE_MAX_MERCHANT_SCANS", 120),
			MinScansForUserRatio:      getEnvInt("ABUSE_MIN_SCANS_FOR_USER_RATIO", 20),
			MinDistinctUserPercent:    getEnvInt("ABUSE_MIN_DISTINCT_USER_PERCENT", 25),
			MaxTravelSpeedKmh:         getEnvFloat("ABUSE_MAX_TRAVEL_SPEED_KMH", 900),
			RejectFlagged:             getEnvBool("ABUSE_REJECT_FLAGGED", false),
		},
		Consent: ConsentConfig{
			TokenExpiryHours: getEnvInt("CONSENT_TOKEN_EXPIRY_HOURS", 72),
			ApprovalBaseURL:  getEnv("CONSENT_APPROVAL_BASE_URL", "http://localhost:3000/consent"),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return fallback
}

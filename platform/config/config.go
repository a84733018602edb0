// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetJWTRefreshSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// BusinessTimeConfig provides the location used to decide what "today" is.
type BusinessTimeConfig interface {
	GetBusinessLocation() *time.Location
}

// EmailConfig provides fallback sender identity when no SMTP settings row is active.
type EmailConfig interface {
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetInstallerFallbackEmail() string
}

// SMTPCryptoConfig provides the key used to encrypt stored SMTP passwords.
type SMTPCryptoConfig interface {
	GetSMTPEncryptionKey() []byte
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// TrackingConfig provides settings for carrier tracking.
type TrackingConfig interface {
	GetTrackingMode() string
	GetTrackingSyncInterval() time.Duration
	GetTrackingCacheTTL() time.Duration
	GetTrackingConcurrency() int
	GetUSPSTrackingURL() string
}

// DigestConfig provides settings for the follow-up digest job.
type DigestConfig interface {
	GetFollowupDigestHour() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketExports() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	JWTAccessSecret        string
	JWTRefreshSecret       string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	Timezone               string
	BusinessLocation       *time.Location
	EmailFromName          string
	EmailFromAddress       string
	InstallerFallbackEmail string
	SMTPEncryptionKey      []byte
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	TrackingMode           string
	TrackingSyncInterval   time.Duration
	TrackingCacheTTL       time.Duration
	TrackingConcurrency    int
	USPSTrackingURL        string
	FollowupDigestHour     int
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinIOMaxFileSize       int64
	MinioBucketExports     string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetJWTRefreshSecret() string       { return c.JWTRefreshSecret }
func (c *Config) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// BusinessTimeConfig implementation
func (c *Config) GetBusinessLocation() *time.Location {
	if c.BusinessLocation == nil {
		return time.UTC
	}
	return c.BusinessLocation
}

// EmailConfig implementation
func (c *Config) GetEmailFromName() string          { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string       { return c.EmailFromAddress }
func (c *Config) GetInstallerFallbackEmail() string { return c.InstallerFallbackEmail }

// SMTPCryptoConfig implementation
func (c *Config) GetSMTPEncryptionKey() []byte { return c.SMTPEncryptionKey }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// TrackingConfig implementation
func (c *Config) GetTrackingMode() string                { return c.TrackingMode }
func (c *Config) GetTrackingSyncInterval() time.Duration { return c.TrackingSyncInterval }
func (c *Config) GetTrackingCacheTTL() time.Duration     { return c.TrackingCacheTTL }
func (c *Config) GetTrackingConcurrency() int            { return c.TrackingConcurrency }
func (c *Config) GetUSPSTrackingURL() string             { return c.USPSTrackingURL }

// DigestConfig implementation
func (c *Config) GetFollowupDigestHour() int { return c.FollowupDigestHour }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketExports() string { return c.MinioBucketExports }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(getEnv)
}

func fromEnv(lookup func(key, fallback string) string) (*Config, error) {
	corsOrigins := splitCSV(lookup("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(lookup("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	timezone := lookup("APP_TIMEZONE", "America/Los_Angeles")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE %q is not a valid location: %w", timezone, err)
	}

	var smtpKey []byte
	if raw := strings.TrimSpace(lookup("SMTP_ENCRYPTION_KEY", "")); raw != "" {
		smtpKey, err = hex.DecodeString(raw)
		if err != nil || len(smtpKey) != 32 {
			return nil, fmt.Errorf("SMTP_ENCRYPTION_KEY must be 64 hex characters")
		}
	}

	cfg := &Config{
		Env:                    lookup("APP_ENV", "development"),
		HTTPAddr:               lookup("HTTP_ADDR", ":8080"),
		DatabaseURL:            lookup("DATABASE_URL", ""),
		JWTAccessSecret:        lookup("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret:       lookup("JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:         mustDuration(lookup("JWT_ACCESS_TTL", "15m")),
		RefreshTokenTTL:        mustDuration(lookup("JWT_REFRESH_TTL", "720h")),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(lookup("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		Timezone:               timezone,
		BusinessLocation:       location,
		EmailFromName:          lookup("EMAIL_FROM_NAME", "WrapCRM"),
		EmailFromAddress:       lookup("EMAIL_FROM_ADDRESS", ""),
		InstallerFallbackEmail: lookup("INSTALLER_FALLBACK_EMAIL", ""),
		SMTPEncryptionKey:      smtpKey,
		RedisURL:               lookup("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(lookup("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         lookup("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(lookup("ASYNQ_CONCURRENCY", "10")),
		TrackingMode:           strings.ToLower(lookup("TRACKING_MODE", "scrape")),
		TrackingSyncInterval:   mustDuration(lookup("TRACKING_SYNC_INTERVAL", "15m")),
		TrackingCacheTTL:       mustDuration(lookup("TRACKING_CACHE_TTL", "10m")),
		TrackingConcurrency:    mustInt(lookup("TRACKING_CONCURRENCY", "4")),
		USPSTrackingURL:        lookup("USPS_TRACKING_URL", "https://tools.usps.com/go/TrackConfirmAction"),
		FollowupDigestHour:     mustInt(lookup("FOLLOWUP_DIGEST_HOUR", "7")),
		MinIOEndpoint:          lookup("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         lookup("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         lookup("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(lookup("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:       mustInt64(lookup("MINIO_MAX_FILE_SIZE", "52428800")),
		MinioBucketExports:     lookup("MINIO_BUCKET_EXPORTS", "crm-exports"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.FollowupDigestHour < 0 || cfg.FollowupDigestHour > 23 {
		return nil, fmt.Errorf("FOLLOWUP_DIGEST_HOUR must be between 0 and 23")
	}
	switch cfg.TrackingMode {
	case "scrape", "mock":
	default:
		return nil, fmt.Errorf("TRACKING_MODE must be scrape or mock")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the API and worker binaries.
type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	SMSGatewayURL string
	SMSAPIKey     string

	RedisURL            string
	DispatchQueue       string
	DispatchConcurrency int

	// Budget tier thresholds used by the scoring engine. Currency-agnostic
	// units; defaults suit the primary deployment market.
	BudgetTierTop int64
	BudgetTierMid int64
	BudgetTierLow int64

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment (and .env in development)
// and validates required settings up front.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:     corsAllowAll,
		CORSOrigins:      corsOrigins,
		CORSAllowCreds:   strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		EmailEnabled:     emailEnabled && smtpHost != "",
		SMTPHost:         smtpHost,
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "ChatLead"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		SMSGatewayURL: getEnv("SMS_GATEWAY_URL", ""),
		SMSAPIKey:     getEnv("SMS_API_KEY", ""),

		RedisURL:            getEnv("REDIS_URL", ""),
		DispatchQueue:       getEnv("DISPATCH_QUEUE", "default"),
		DispatchConcurrency: mustInt(getEnv("DISPATCH_CONCURRENCY", "10")),

		BudgetTierTop: mustInt64(getEnv("SCORE_BUDGET_TIER_TOP", "20000000")),
		BudgetTierMid: mustInt64(getEnv("SCORE_BUDGET_TIER_MID", "10000000")),
		BudgetTierLow: mustInt64(getEnv("SCORE_BUDGET_TIER_LOW", "5000000")),

		ShutdownTimeout: mustDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.BudgetTierTop < cfg.BudgetTierMid || cfg.BudgetTierMid < cfg.BudgetTierLow {
		return nil, fmt.Errorf("budget tiers must be ordered top >= mid >= low")
	}

	return cfg, nil
}

// Getter methods satisfying the narrow config interfaces consumed by
// platform and domain packages.

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool { return c.CORSAllowCreds }

func (c *Config) GetEmailEnabled() bool { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string { return c.SMTPHost }
func (c *Config) GetSMTPPort() int { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

func (c *Config) GetSMSGatewayURL() string { return c.SMSGatewayURL }
func (c *Config) GetSMSAPIKey() string { return c.SMSAPIKey }

func (c *Config) GetRedisURL() string { return c.RedisURL }
func (c *Config) GetDispatchQueue() string { return c.DispatchQueue }
func (c *Config) GetDispatchConcurrency() int { return c.DispatchConcurrency }

func (c *Config) GetBudgetTiers() (top, mid, low int64) {
	return c.BudgetTierTop, c.BudgetTierMid, c.BudgetTierLow
}

// HTTPConfig is the router-facing configuration surface.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetJWTAccessSecret() string
}

// EmailConfig is consumed by the email sender.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SMSConfig is consumed by the SMS gateway client.
type SMSConfig interface {
	GetSMSGatewayURL() string
	GetSMSAPIKey() string
}

// DispatchConfig is consumed by the asynq client and worker.
type DispatchConfig interface {
	GetRedisURL() string
	GetDispatchQueue() string
	GetDispatchConcurrency() int
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

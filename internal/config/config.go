// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string

	// PayPal
	PayPalClientID  string
	PayPalSecret    string
	PayPalAPIBase   string
	PayPalBrandName string

	// Checkout redirect targets
	CheckoutSuccessURL string
	CheckoutCancelURL  string

	// CampaignDiscountPercent is the site-wide promotional discount applied
	// to every quote. Zero disables it.
	CampaignDiscountPercent int64

	// Security
	RateLimitRPS int
	AdminSecret  string // Admin API secret
	CORSOrigins  []string

	// Tracing
	OTLPEndpoint string
}

const (
	DefaultPort          = "8080"
	DefaultEnv           = "development"
	DefaultLogLevel      = "info"
	DefaultRateLimit     = 100
	DefaultPayPalAPIBase = "https://api-m.sandbox.paypal.com"
	DefaultBrandName     = "OasisAI"
	DefaultSuccessURL    = "http://localhost:3000/checkout/success"
	DefaultCancelURL     = "http://localhost:3000/checkout/cancel"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", DefaultPort),
		Env:                     getEnv("ENV", DefaultEnv),
		LogLevel:                getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:             os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PayPalClientID:          os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:            os.Getenv("PAYPAL_SECRET"),
		PayPalAPIBase:           getEnv("PAYPAL_API_BASE", DefaultPayPalAPIBase),
		PayPalBrandName:         getEnv("PAYPAL_BRAND_NAME", DefaultBrandName),
		CheckoutSuccessURL:      getEnv("CHECKOUT_SUCCESS_URL", DefaultSuccessURL),
		CheckoutCancelURL:       getEnv("CHECKOUT_CANCEL_URL", DefaultCancelURL),
		CampaignDiscountPercent: getEnvInt64("CAMPAIGN_DISCOUNT_PERCENT", 0),
		RateLimitRPS:            int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
		AdminSecret:             os.Getenv("ADMIN_SECRET"),
		CORSOrigins:             splitList(os.Getenv("CORS_ORIGINS")),
		OTLPEndpoint:            os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if c.CampaignDiscountPercent < 0 || c.CampaignDiscountPercent > 100 {
		return fmt.Errorf("CAMPAIGN_DISCOUNT_PERCENT must be between 0 and 100")
	}
	if c.IsProduction() && c.AdminSecret == "" {
		return fmt.Errorf("ADMIN_SECRET is required in production")
	}
	if (c.PayPalClientID == "") != (c.PayPalSecret == "") {
		return fmt.Errorf("PAYPAL_CLIENT_ID and PAYPAL_SECRET must be set together")
	}
	return nil
}

// PayPalEnabled reports whether PayPal credentials are configured
func (c *Config) PayPalEnabled() bool {
	return c.PayPalClientID != "" && c.PayPalSecret != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

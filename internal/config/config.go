package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Booking lifecycle policy configuration
	Booking BookingConfig

	// Stripe payment gateway configuration
	Stripe StripeConfig

	// Telegram staff notification configuration
	Telegram TelegramConfig

	// Scheduler configuration
	Scheduler SchedulerConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// BookingConfig holds the fee-policy and timing parameters of the booking
// lifecycle engine. All values are deployment configuration, never hardcoded
// in the engine itself.
type BookingConfig struct {
	CancellationFeePercent float64       // Fraction of total charge billed on late cancellation
	CancellationNotice     time.Duration // Cancelling at checkInDate - notice or later is "late"
	CheckInGracePeriod     time.Duration // How early before checkInDate a check-in is accepted
	OverstayDailyRate      float64       // Fraction of nightly rate billed per day of overstay
	NoShowFeePercent       float64       // Fraction of total charge billed on no-show
}

// StripeConfig holds Stripe checkout/webhook configuration
type StripeConfig struct {
	APIBaseURL    string // Override for tests; default https://api.stripe.com
	SecretKey     string // Stripe secret key (never expose to client)
	WebhookSecret string // Signing secret for webhook verification
	SuccessURL    string // Redirect after successful checkout
	CancelURL     string // Redirect after abandoned checkout
	Currency      string
}

// TelegramConfig holds Telegram bot configuration for staff notifications
type TelegramConfig struct {
	APIBaseURL string // Override for tests; default https://api.telegram.org
	BotToken   string
	ChatID     int64 // Staff channel chat id
}

// SchedulerConfig holds cron schedules and dispatcher timing
type SchedulerConfig struct {
	NoShowSweepSpec  string        // Cron spec (with seconds) for the daily no-show sweep
	DispatchInterval time.Duration // How often the dispatcher drains the intent outbox
	DispatchBatch    int           // Max intents per drain
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Booking: BookingConfig{
			CancellationFeePercent: getEnvAsFloat("CANCELLATION_FEE_PERCENT", 0.25),
			CancellationNotice:     time.Duration(getEnvAsInt("CANCELLATION_NOTICE_HOURS", 24)) * time.Hour,
			CheckInGracePeriod:     time.Duration(getEnvAsInt("CHECKIN_GRACE_HOURS", 3)) * time.Hour,
			OverstayDailyRate:      getEnvAsFloat("OVERSTAY_DAILY_RATE", 1.5),
			NoShowFeePercent:       getEnvAsFloat("NO_SHOW_FEE_PERCENT", 0.5),
		},
		Stripe: StripeConfig{
			APIBaseURL:    getEnv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/payment/success"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/payment/cancel"),
			Currency:      getEnv("STRIPE_CURRENCY", "usd"),
		},
		Telegram: TelegramConfig{
			APIBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:     getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		},
		Scheduler: SchedulerConfig{
			NoShowSweepSpec:  getEnv("NO_SHOW_SWEEP_SPEC", "0 0 0 * * *"), // Daily at midnight
			DispatchInterval: time.Duration(getEnvAsInt("DISPATCH_INTERVAL_SECONDS", 15)) * time.Second,
			DispatchBatch:    getEnvAsInt("DISPATCH_BATCH_SIZE", 100),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Booking.CancellationFeePercent < 0 || c.Booking.CancellationFeePercent > 1 {
		return fmt.Errorf("CANCELLATION_FEE_PERCENT must be between 0 and 1")
	}

	if c.Booking.NoShowFeePercent < 0 || c.Booking.NoShowFeePercent > 1 {
		return fmt.Errorf("NO_SHOW_FEE_PERCENT must be between 0 and 1")
	}

	if c.Booking.OverstayDailyRate < 0 {
		return fmt.Errorf("OVERSTAY_DAILY_RATE must not be negative")
	}

	// Gateway credentials are required only in production. Without them the
	// dispatcher still attempts delivery; those intents fail and stay in the
	// outbox with last_error set.
	if c.Server.Environment == "production" {
		if c.Stripe.SecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
		}
		if c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required in production")
		}
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required in production")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required in production")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
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
		log.Printf("Invalid float value for %s, using default: %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

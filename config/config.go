package config

import (
	"os"
	"strings"
	"time"
)

// Config holds all configuration for the admin service.
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port           string
	TrustedProxies []string

	// Auth
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	// Object storage (listing image bucket)
	StorageBaseURL string
	StorageBucket  string
	StorageKey     string

	// Push notification dispatch function
	NotifyURL string
	NotifyKey string

	// Password reset email
	SendGridKey  string
	EmailFrom    string
	EmailName    string
	ResetBaseURL string

	// Moderation event fan-out (optional)
	AMQPURL      string
	AMQPExchange string
	RoutingKey   string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "toumai"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Auth defaults
		JWTSecret:  getEnv("JWT_SECRET", "your-secret-key-here"),
		AccessTTL:  getDurationEnv("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTTL: getDurationEnv("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		ResetTTL:   getDurationEnv("RESET_TOKEN_TTL", time.Hour),

		// Storage defaults
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8000/storage/v1"),
		StorageBucket:  getEnv("STORAGE_BUCKET", "product-images"),
		StorageKey:     getEnv("STORAGE_SERVICE_KEY", ""),

		// Notification defaults
		NotifyURL: getEnv("NOTIFY_FN_URL", ""),
		NotifyKey: getEnv("NOTIFY_FN_KEY", ""),

		// Email defaults
		SendGridKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "no-reply@toumai.market"),
		EmailName:    getEnv("EMAIL_FROM_NAME", "Toumai Market"),
		ResetBaseURL: getEnv("RESET_BASE_URL", "https://admin.toumai.market/reset-password"),

		// Event fan-out defaults (disabled when AMQP_URL is empty)
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moderation"),
		RoutingKey:   getEnv("AMQP_ROUTING_KEY", "moderation.decisions"),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Handle trusted proxies
	if trustedProxies := os.Getenv("TRUSTED_PROXIES"); trustedProxies != "" {
		cfg.TrustedProxies = strings.Split(trustedProxies, ",")
		for i, proxy := range cfg.TrustedProxies {
			cfg.TrustedProxies[i] = strings.TrimSpace(proxy)
		}
	}

	return cfg
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

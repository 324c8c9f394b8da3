package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service Ports
	HTTPPort int `env:"HTTP_PORT" default:"8080"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" required:"true"`

	// Authentication
	JWTSecret      string        `env:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" default:"15m"`

	// Refresh tokens
	RefreshTokenTTL         time.Duration `env:"REFRESH_TOKEN_TTL" default:"168h"`
	MaxRefreshTokensPerUser int           `env:"MAX_REFRESH_TOKENS_PER_USER" default:"5"`

	// Password reset tokens
	PasswordResetTTL           time.Duration `env:"PASSWORD_RESET_TTL" default:"1h"`
	MaxValidResetTokensPerUser int           `env:"MAX_VALID_RESET_TOKENS_PER_USER" default:"3"`

	// Blacklist backend: "postgres" keeps blacklisted tokens in the main DB,
	// "redis" keeps them in redis with a TTL matching the access token lifetime
	BlacklistBackend string `env:"BLACKLIST_BACKEND" default:"postgres"`
	RedisURL         string `env:"REDIS_URL" default:"redis:6379"`
	RedisPassword    string `env:"REDIS_PASSWORD"`

	// Maintenance
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" default:"1h"`

	// Outbound mail (password reset)
	SMTPAddr     string        `env:"SMTP_ADDR" default:"localhost:587"`
	SMTPFrom     string        `env:"SMTP_FROM" default:"no-reply@teamsync.local"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" default:"10s"`

	// Rate limiting on auth endpoints
	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" default:"5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" default:"10"`

	// Development
	LogLevel string `env:"LOG_LEVEL" default:"debug"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file from project root (adjust path as needed)
	err := godotenv.Load(".env")
	if err != nil {
		// If .env file doesn't exist, that's OK - we can still use system env vars
		// Only log this in development, don't fail
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config := &Config{}

	// Load each field with proper type conversion and validation
	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// Ports
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}

	// Database
	if err := loadEnvStringRequired(&config.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvStringRequired(&config.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.AccessTokenTTL, "ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	// Refresh tokens
	if err := loadEnvDuration(&config.RefreshTokenTTL, "REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.MaxRefreshTokensPerUser, "MAX_REFRESH_TOKENS_PER_USER", 5); err != nil {
		return nil, err
	}

	// Password reset tokens
	if err := loadEnvDuration(&config.PasswordResetTTL, "PASSWORD_RESET_TTL", time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.MaxValidResetTokensPerUser, "MAX_VALID_RESET_TOKENS_PER_USER", 3); err != nil {
		return nil, err
	}

	// Blacklist / Redis
	if err := loadEnvString(&config.BlacklistBackend, "BLACKLIST_BACKEND", "postgres"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisURL, "REDIS_URL", "redis:6379"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}

	// Maintenance
	if err := loadEnvDuration(&config.CleanupInterval, "CLEANUP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	// Mail
	if err := loadEnvString(&config.SMTPAddr, "SMTP_ADDR", "localhost:587"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SMTPFrom, "SMTP_FROM", "no-reply@teamsync.local"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SMTPUser, "SMTP_USER", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SMTPPassword, "SMTP_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.SMTPTimeout, "SMTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	// Rate limiting
	if err := loadEnvFloat(&config.AuthRateLimit, "AUTH_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.AuthRateBurst, "AUTH_RATE_BURST", 10); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "debug"); err != nil {
		return nil, err
	}

	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}

	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	// Validate JWT secret length (should be at least 32 characters for security)
	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	validBackends := []string{"postgres", "redis"}
	if !contains(validBackends, c.BlacklistBackend) {
		errors = append(errors, fmt.Sprintf("BLACKLIST_BACKEND must be one of: %s", strings.Join(validBackends, ", ")))
	}

	if c.MaxRefreshTokensPerUser < 1 {
		errors = append(errors, "MAX_REFRESH_TOKENS_PER_USER must be at least 1")
	}
	if c.MaxValidResetTokensPerUser < 1 {
		errors = append(errors, "MAX_VALID_RESET_TOKENS_PER_USER must be at least 1")
	}
	if c.RefreshTokenTTL <= 0 || c.PasswordResetTTL <= 0 || c.AccessTokenTTL <= 0 {
		errors = append(errors, "token TTLs must be positive durations")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

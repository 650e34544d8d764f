package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	GoEnv       string `env:"GO_ENV" envDefault:"development" validate:"oneof=development test production"`
	Port        string `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres" validate:"oneof=postgres sqlite"`
	DatabaseURL string `env:"DATABASE_URL" validate:"required"`

	JWTSecret   string `env:"JWT_SECRET" validate:"required,min=16"`
	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"washwala-auth"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"washwala-api"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`

	CacheProvider   string        `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisURL        string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m" validate:"gt=0"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," validate:"required_if=KafkaEnabled true"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"order-events"`

	FreeDeliveryThreshold decimal.Decimal `env:"FREE_DELIVERY_THRESHOLD" envDefault:"1000"`
	DeliveryFee           decimal.Decimal `env:"DELIVERY_FEE" envDefault:"100"`
	ExpressFeeRate        decimal.Decimal `env:"EXPRESS_FEE_RATE" envDefault:"0.5"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

var configValidator = validator.New()

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	loadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadEnvFile() {
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" {
		goEnv = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", goEnv)
	if err := godotenv.Load(envFile); err == nil {
		slog.Info("loaded configuration", "file", envFile)
		return
	}
	if err := godotenv.Load(); err != nil {
		// In production environment variables are set directly
		slog.Debug("no .env file found, using system environment variables")
	}
}

// Validate checks that all required configuration values are set and consistent
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if c.FreeDeliveryThreshold.IsNegative() || c.DeliveryFee.IsNegative() {
		return fmt.Errorf("FREE_DELIVERY_THRESHOLD and DELIVERY_FEE must not be negative")
	}
	if c.ExpressFeeRate.IsNegative() {
		return fmt.Errorf("EXPRESS_FEE_RATE must not be negative")
	}
	if c.IsProduction() && c.DBDriver == "sqlite" {
		return fmt.Errorf("DB_DRIVER=sqlite is not allowed in production")
	}
	for _, broker := range c.KafkaBrokers {
		if strings.TrimSpace(broker) == "" {
			return fmt.Errorf("KAFKA_BROKERS contains an empty entry")
		}
	}

	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

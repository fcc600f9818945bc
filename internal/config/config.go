// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds configuration for both the client CLI and the stub backend,
// loaded from config.yml and environment variables.
type Config struct {
	// Client
	APIBaseURL         string `mapstructure:"API_BASE_URL"`
	HTTPTimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	StateBackend       string `mapstructure:"STATE_BACKEND"` // "file" or "redis"
	StateDir           string `mapstructure:"STATE_DIR"`
	RedisURL           string `mapstructure:"REDIS_URL"`
	ContentTTLSeconds  int    `mapstructure:"CONTENT_TTL_SECONDS"`

	// Tracing
	TracingEnabled bool   `mapstructure:"TRACING_ENABLED"`
	TraceExporter  string `mapstructure:"TRACE_EXPORTER"`
	OTLPEndpoint   string `mapstructure:"OTLP_ENDPOINT"`

	// Stub backend
	Port                string `mapstructure:"PORT"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	DBPath              string `mapstructure:"DB_PATH"`
	SeedDemoData        bool   `mapstructure:"SEED_DEMO_DATA"`
	AccessTokenTTLMin   int    `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	RefreshTokenTTLHrs  int    `mapstructure:"REFRESH_TOKEN_TTL_HOURS"`
	AllowedOrigins      string `mapstructure:"ALLOWED_ORIGINS"`

	Env string `mapstructure:"APP_ENV"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Println("Config file not found; using environment variables and defaults")
	}

	// Set default values for development
	viper.SetDefault("API_BASE_URL", "http://localhost:5005/api/v1")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	viper.SetDefault("STATE_BACKEND", "file")
	viper.SetDefault("STATE_DIR", filepath.Join(".", ".gia"))
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("CONTENT_TTL_SECONDS", 300)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACE_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("PORT", "5005")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("DB_PATH", filepath.Join(".", "gia.db"))
	viper.SetDefault("SEED_DEMO_DATA", false)
	viper.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 15)
	viper.SetDefault("REFRESH_TOKEN_TTL_HOURS", 168)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet
// security standards.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StateBackend {
	case "file", "redis":
	default:
		return fmt.Errorf("STATE_BACKEND must be 'file' or 'redis', got %q", c.StateBackend)
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

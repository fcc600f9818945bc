package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		APIBaseURL:   "http://localhost:5005/api/v1",
		Port:         "5005",
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		StateBackend: "file",
		Env:          "development",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing base URL", func(c *Config) { c.APIBaseURL = "" }, true},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing JWT secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown state backend", func(c *Config) { c.StateBackend = "s3" }, true},
		{"redis state backend", func(c *Config) { c.StateBackend = "redis" }, false},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"production with strong secret", func(c *Config) { c.Env = "production" }, false},
		{"development tolerates short secret", func(c *Config) { c.JWTSecret = "short" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:5005/api/v1", c.APIBaseURL)
	assert.Equal(t, "file", c.StateBackend)
	assert.Equal(t, 15, c.HTTPTimeoutSeconds)
	assert.Equal(t, 300, c.ContentTTLSeconds)
	assert.Equal(t, "5005", c.Port)
	assert.Equal(t, 15, c.AccessTokenTTLMin)
	assert.Equal(t, 168, c.RefreshTokenTTLHrs)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	defer os.Unsetenv("API_BASE_URL")
	defer os.Unsetenv("STATE_BACKEND")
	defer viper.Reset()

	os.Setenv("API_BASE_URL", "https://api.gia.fashion/api/v1")
	os.Setenv("STATE_BACKEND", "redis")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "https://api.gia.fashion/api/v1", c.APIBaseURL)
	assert.Equal(t, "redis", c.StateBackend)
}

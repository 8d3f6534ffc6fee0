// Package config loads server configuration from the environment or a .env file using viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerAddr      string        `mapstructure:"SERVER_ADDR"`
	DataFile        string        `mapstructure:"DATA_FILE"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Defaults applied when neither the environment nor .env sets a key.
var defaults = map[string]any{
	"SERVER_ADDR":      ":8080",
	"DATA_FILE":        "data.json",
	"LOG_LEVEL":        "info",
	"LOG_FORMAT":       "json",
	"RATE_LIMIT_RPS":   20.0,
	"RATE_LIMIT_BURST": 40,
	"SHUTDOWN_TIMEOUT": "10s",
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for k, v := range defaults {
		viper.SetDefault(k, v)
		_ = viper.BindEnv(k)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting by its key name.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ServerAddr) == "":
		return errors.New("SERVER_ADDR must not be empty")
	case c.RateLimitRPS < 0:
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0, got %v", c.RateLimitRPS)
	case c.RateLimitRPS > 0 && c.RateLimitBurst <= 0:
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0 when rate limiting is enabled, got %d", c.RateLimitBurst)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

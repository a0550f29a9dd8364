package config

import (
	"os"
	"strconv"

	"ablab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds database connection settings. URL is optional: when
// empty the dashboard runs on the in-memory sample catalog.
type DatabaseConfig struct {
	URL string
}

// AnalysisConfig holds engine defaults
type AnalysisConfig struct {
	DefaultAlpha float64
	DefaultPower float64
}

// Load builds configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    envOr("PORT", "8080"),
			GinMode: envOr("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Analysis: AnalysisConfig{
			DefaultAlpha: 0.05,
			DefaultPower: 0.80,
		},
	}

	if v := os.Getenv("DEFAULT_ALPHA"); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil || alpha <= 0 || alpha >= 1 {
			return nil, errors.ConfigInvalid("DEFAULT_ALPHA must be a number between 0 and 1")
		}
		cfg.Analysis.DefaultAlpha = alpha
	}
	if v := os.Getenv("DEFAULT_POWER"); v != "" {
		power, err := strconv.ParseFloat(v, 64)
		if err != nil || power <= 0 || power >= 1 {
			return nil, errors.ConfigInvalid("DEFAULT_POWER must be a number between 0 and 1")
		}
		cfg.Analysis.DefaultPower = power
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

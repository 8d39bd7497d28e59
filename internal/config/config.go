package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"xaistudy/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Backend  BackendConfig
	Study    StudyConfig
	Server   ServerConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// BackendConfig points at the external prediction/explanation backend
type BackendConfig struct {
	BaseURL string
}

// StudyConfig controls arm selection
type StudyConfig struct {
	// ABSelection is "alternate" for balanced assignment; any other value is a fixed arm.
	ABSelection string
	// GroupName overrides the study group label stored in profiles.
	GroupName string
	// ComprehensionCheckID is excluded from the attention-check failure count.
	ComprehensionCheckID string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}

	return &Config{
		Database: *dbConfig,
		Backend: BackendConfig{
			BaseURL: os.Getenv("PUBLIC_BACKEND_URL"),
		},
		Study: StudyConfig{
			ABSelection:          os.Getenv("PUBLIC_A_B_SELECTION"),
			GroupName:            os.Getenv("STUDY_GROUP_NAME"),
			ComprehensionCheckID: getEnvOrDefault("COMPREHENSION_CHECK_ID", "1"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     getEnvIntOrDefault("POSTGRES_PORT", 5432),
		SSLMode:  getEnvOrDefault("SSL_MODE", "disable"),
	}

	if cfg.URL == "" {
		if cfg.Host == "" {
			return nil, errors.ConfigInvalid("DATABASE_URL or POSTGRES_HOST is required")
		}
		cfg.URL = cfg.DSN()
	}

	return cfg, nil
}

// DSN builds a postgres connection URL from the individual settings
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Missing lists required settings that are unset. They are reported, not enforced.
func (c *Config) Missing() []string {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Backend.BaseURL == "" {
		missing = append(missing, "PUBLIC_BACKEND_URL")
	}
	if c.Study.ABSelection == "" {
		missing = append(missing, "PUBLIC_A_B_SELECTION")
	}
	return missing
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

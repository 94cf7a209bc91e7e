// Package config provides configuration management for the scene browser service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Catalog  CatalogConfig  `envPrefix:"CATALOG_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Session  SessionConfig  `envPrefix:"SESSION_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	STAC     STACConfig     `envPrefix:"STAC_"`
	Features FeatureConfig  `envPrefix:"FEATURE_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Catalog backend types.
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
	CatalogRemote   = "remote"
)

// CatalogConfig selects and configures the scene catalog.
type CatalogConfig struct {
	// Type specifies which catalog to use: "memory", "postgres" or "remote"
	Type string `env:"TYPE" envDefault:"memory"`
	// FixturePath is a JSON file or directory of JSON files with products and scenes.
	FixturePath   string        `env:"FIXTURE_PATH" envDefault:"data/catalog.json"`
	RemoteURL     string        `env:"REMOTE_URL" envDefault:""`
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig contains Postgres connection configuration.
type DatabaseConfig struct {
	URL     string        `env:"URL" envDefault:""`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
	Debug   bool          `env:"DEBUG" envDefault:"false"`
	// Seed loads the fixture into an empty database on startup.
	Seed bool `env:"SEED" envDefault:"false"`
}

// SessionConfig contains search session defaults.
type SessionConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"30m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
	DefaultROI      []float64     `env:"DEFAULT_ROI" envSeparator:"," envDefault:"126.5,36.0,127.5,37.0"`
	DefaultLimit    int           `env:"DEFAULT_LIMIT" envDefault:"20"`
	// AutoSearch is "never", "drag" or "always".
	AutoSearch string  `env:"AUTO_SEARCH" envDefault:"never"`
	Opacity    float64 `env:"PREVIEW_OPACITY" envDefault:"0.7"`
}

// AuthConfig contains bearer token verification configuration.
// An empty secret disables token verification and every request is anonymous.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" envDefault:""`
	Issuer    string        `env:"ISSUER" envDefault:"scene-browser"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// STACConfig contains STAC export metadata configuration.
type STACConfig struct {
	Version     string `env:"VERSION" envDefault:"1.0.0"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Title       string `env:"TITLE" envDefault:"Scene Browser STAC API"`
	Description string `env:"DESCRIPTION" envDefault:"STAC export of the scene browser catalog"`
}

// FeatureConfig contains feature flags.
type FeatureConfig struct {
	EnableSTAC bool `env:"ENABLE_STAC" envDefault:"true"`
	EnableMCP  bool `env:"ENABLE_MCP" envDefault:"false"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables, after merging an
// optional .env file from the working directory. Variables already set in the
// environment take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	switch c.Catalog.Type {
	case CatalogMemory:
		if c.Catalog.FixturePath == "" {
			return fmt.Errorf("catalog fixture path is required for the memory catalog")
		}
	case CatalogPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database URL is required for the postgres catalog")
		}
		if c.Database.Timeout <= 0 {
			return fmt.Errorf("database timeout must be positive, got %s", c.Database.Timeout)
		}
	case CatalogRemote:
		if c.Catalog.RemoteURL == "" {
			return fmt.Errorf("catalog remote URL is required for the remote catalog")
		}
		if c.Catalog.RemoteTimeout <= 0 {
			return fmt.Errorf("catalog remote timeout must be positive, got %s", c.Catalog.RemoteTimeout)
		}
	default:
		return fmt.Errorf("catalog type must be 'memory', 'postgres' or 'remote', got %q", c.Catalog.Type)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.Session.TTL)
	}

	if c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("session cleanup interval must be positive, got %s", c.Session.CleanupInterval)
	}

	if len(c.Session.DefaultROI) != 4 {
		return fmt.Errorf("session default ROI must have 4 values, got %d", len(c.Session.DefaultROI))
	}
	if c.Session.DefaultROI[0] > c.Session.DefaultROI[2] || c.Session.DefaultROI[1] > c.Session.DefaultROI[3] {
		return fmt.Errorf("session default ROI must be [min_lon,min_lat,max_lon,max_lat], got %v", c.Session.DefaultROI)
	}

	if c.Session.DefaultLimit < 1 || c.Session.DefaultLimit > 200 {
		return fmt.Errorf("session default limit must be between 1 and 200, got %d", c.Session.DefaultLimit)
	}

	validAutoSearch := map[string]bool{
		"never":  true,
		"drag":   true,
		"always": true,
	}
	if !validAutoSearch[c.Session.AutoSearch] {
		return fmt.Errorf("invalid session auto search %q, must be one of: never, drag, always", c.Session.AutoSearch)
	}

	if c.Session.Opacity < 0 || c.Session.Opacity > 1 {
		return fmt.Errorf("session preview opacity must be between 0 and 1, got %g", c.Session.Opacity)
	}

	if c.Auth.JWTSecret != "" && c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL must be positive, got %s", c.Auth.TokenTTL)
	}

	if c.Features.EnableSTAC {
		if c.STAC.BaseURL == "" {
			return fmt.Errorf("STAC base URL is required")
		}

		if c.STAC.Version == "" {
			return fmt.Errorf("STAC version is required")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

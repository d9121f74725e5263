// Package config loads service configuration from the environment.
//
// Defaults come from an embedded YAML document and are overridden by
// environment variables. A .env file in the working directory is loaded
// first, matching how the service is run in development.
//
// Recognized variables:
//   - SERVER_PORT: HTTP listen port (default: 5000)
//   - SERVER_SHUTDOWN_TIMEOUT: graceful shutdown timeout (default: 10s)
//   - DATABASE_URL: postgres connection string; takes precedence over the
//     discrete DATABASE_* parameters below
//   - DATABASE_HOST, DATABASE_PORT, DATABASE_USER, DATABASE_PASSWORD,
//     DATABASE_NAME, DATABASE_SSLMODE: discrete connection parameters
//   - AUTH_JWT_SECRET: signing secret for session tokens (required)
//   - AUTH_TOKEN_TTL: session token lifetime (default: 24h)
//   - CORS_ALLOWED_ORIGINS: comma-separated browser origins (default: *)
//   - LOG_LEVEL: debug, info, warn, or error (default: info)
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// defaults is the baseline configuration, in the same keyspace the
// environment variables map onto.
var defaults = []byte(`
server:
  port: 5000
  shutdown_timeout: 10s
database:
  url: ""
  host: ""
  port: 5432
  user: ""
  password: ""
  name: ""
  sslmode: disable
auth:
  jwt_secret: ""
  token_ttl: 24h
cors:
  allowed_origins: "*"
log:
  level: info
`)

// Config holds the complete service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds postgres connection parameters. When URL is set it
// wins over the discrete fields.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Configured reports whether any database connection was provided at all.
// When false the service runs on the in-memory store.
func (d DatabaseConfig) Configured() bool {
	return d.URL != "" || d.Host != ""
}

// ConnString builds the lib/pq connection string.
func (d DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// AuthConfig holds session token configuration.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// CORSConfig holds the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins string
}

// Origins returns the allowed origins as a list.
func (c CORSConfig) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// Load reads configuration from defaults and the environment.
func Load() (*Config, error) {
	// Best effort; running without a .env file is normal.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Environment variables are uppercased with an underscore separator;
	// the first underscore becomes the section delimiter.
	// Example: SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            k.Int("server.port"),
			ShutdownTimeout: k.Duration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			URL:      k.String("database.url"),
			Host:     k.String("database.host"),
			Port:     k.Int("database.port"),
			User:     k.String("database.user"),
			Password: k.String("database.password"),
			Name:     k.String("database.name"),
			SSLMode:  k.String("database.sslmode"),
		},
		Auth: AuthConfig{
			JWTSecret: k.String("auth.jwt_secret"),
			TokenTTL:  k.Duration("auth.token_ttl"),
		},
		CORS: CORSConfig{
			AllowedOrigins: k.String("cors.allowed_origins"),
		},
		Log: LogConfig{
			Level: k.String("log.level"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration before startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	return nil
}

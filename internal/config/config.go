// Package config loads service configuration from an optional YAML file
// with environment variables layered on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is tried when no explicit path is given.
const DefaultConfigPath = "config/config.yaml"

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host         string `yaml:"host" env:"SERVER_HOST"`
	Port         int    `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout  int    `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout int    `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  int    `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
}

// DatabaseConfig controls the PostgreSQL connection. An empty DSN means
// the service runs on in-memory stores.
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN             string `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
}

// RedisConfig controls the optional Redis session store.
type RedisConfig struct {
	Addr       string `yaml:"addr" env:"REDIS_ADDR"`
	Password   string `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"REDIS_DB"`
	SessionTTL int    `yaml:"session_ttl" env:"REDIS_SESSION_TTL"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// CORSConfig controls cross-origin access for the web client.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

// Origins returns the configured origins as a list.
func (c CORSConfig) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond int  `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"`
	Burst             int  `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

// AdminConfig controls the category administration API. The admin API
// is mounted only when credentials and a JWT secret are present. A
// plaintext Password is bcrypt-hashed at load when no hash is given.
type AdminConfig struct {
	Username     string `yaml:"username" env:"ADMIN_USERNAME"`
	Password     string `yaml:"password" env:"ADMIN_PASSWORD"`
	PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
	JWTSecret    string `yaml:"jwt_secret" env:"ADMIN_JWT_SECRET"`
	TokenTTL     int    `yaml:"token_ttl" env:"ADMIN_TOKEN_TTL"`
	AuditLimit   int    `yaml:"audit_limit" env:"ADMIN_AUDIT_LIMIT"`
	AuditFile    string `yaml:"audit_file" env:"ADMIN_AUDIT_FILE"`
}

// Enabled reports whether the admin API can be mounted.
func (c AdminConfig) Enabled() bool {
	return c.Username != "" && c.PasswordHash != "" && c.JWTSecret != ""
}

// RotationConfig controls the scheduled midnight puzzle rollover.
type RotationConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ROTATION_ENABLED"`
	Schedule string `yaml:"schedule" env:"ROTATION_SCHEDULE"`
}

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Admin     AdminConfig     `yaml:"admin"`
	Rotation  RotationConfig  `yaml:"rotation"`
}

// Default returns the configuration used when neither file nor
// environment override a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{
			SessionTTL: 48,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		CORS: CORSConfig{
			AllowedOrigins: "*",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Admin: AdminConfig{
			TokenTTL:   24,
			AuditLimit: 200,
		},
		Rotation: RotationConfig{
			Enabled:  true,
			Schedule: "0 0 * * *",
		},
	}
}

// Load reads the default config path, tolerating a missing file, and
// then applies environment overrides.
func Load() (*Config, error) {
	return LoadFromPath(DefaultConfigPath)
}

// LoadFromPath reads the given config file. A missing file is not an
// error; the defaults plus environment carry the configuration then.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// envdecode reports ErrInvalidTarget when not a single variable
	// matched; an empty environment is fine here.
	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrInvalidTarget {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg.Normalize()

	if cfg.Admin.PasswordHash == "" && cfg.Admin.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		cfg.Admin.PasswordHash = string(hash)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize fills defaults and trims whitespace.
func (c *Config) Normalize() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = 120
	}

	c.Database.Driver = strings.TrimSpace(strings.ToLower(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)

	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)
	if c.Redis.SessionTTL <= 0 {
		c.Redis.SessionTTL = 48
	}

	// The web client may be served from anywhere; an unset origin list
	// means open CORS rather than no CORS.
	c.CORS.AllowedOrigins = strings.TrimSpace(c.CORS.AllowedOrigins)
	if c.CORS.AllowedOrigins == "" {
		c.CORS.AllowedOrigins = "*"
	}

	c.Logging.Level = strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.TrimSpace(strings.ToLower(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	c.Logging.Output = strings.TrimSpace(strings.ToLower(c.Logging.Output))
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 10
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 20
	}

	c.Admin.Username = strings.TrimSpace(c.Admin.Username)
	c.Admin.Password = strings.TrimSpace(c.Admin.Password)
	c.Admin.PasswordHash = strings.TrimSpace(c.Admin.PasswordHash)
	c.Admin.JWTSecret = strings.TrimSpace(c.Admin.JWTSecret)
	if c.Admin.TokenTTL <= 0 {
		c.Admin.TokenTTL = 24
	}
	if c.Admin.AuditLimit <= 0 {
		c.Admin.AuditLimit = 200
	}

	c.Rotation.Schedule = strings.TrimSpace(c.Rotation.Schedule)
	if c.Rotation.Schedule == "" {
		c.Rotation.Schedule = "0 0 * * *"
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Database.DSN != "" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if (c.Admin.Username != "" || c.Admin.PasswordHash != "") && !c.Admin.Enabled() {
		return fmt.Errorf("admin config incomplete: username, password and jwt_secret are all required")
	}
	return nil
}

// TokenTTLDuration returns the admin token lifetime.
func (c AdminConfig) TokenTTLDuration() time.Duration {
	return time.Duration(c.TokenTTL) * time.Hour
}

// SessionTTLDuration returns the Redis session lifetime.
func (c RedisConfig) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Hour
}

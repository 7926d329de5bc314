// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Store   StoreConfig   `yaml:"store"`
	Scoring ScoringConfig `yaml:"scoring"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string          `yaml:"host"`
	Port         int             `yaml:"port"`
	ReadTimeout  time.Duration   `yaml:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout"`
	MaxBodyBytes int64           `yaml:"max_body_bytes"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the per-client limit on /method.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// AuthConfig configures token checking.
type AuthConfig struct {
	Salt       string `yaml:"salt"`
	AdminLogin string `yaml:"admin_login"`
	AdminSalt  string `yaml:"admin_salt"`
	Digest     string `yaml:"digest"` // "sha512", "sha3-512" or "blake2b-512"
}

// StoreConfig configures the key-value backend and the retry policy.
type StoreConfig struct {
	Backend     string        `yaml:"backend"` // "memory", "redis", "sqlite" or "postgres"
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
	Redis       RedisConfig   `yaml:"redis"`
	SQLite      DSNConfig     `yaml:"sqlite"`
	Postgres    DSNConfig     `yaml:"postgres"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password,omitempty"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
}

// DSNConfig configures a SQL backend.
type DSNConfig struct {
	DSN string `yaml:"dsn"`
}

// ScoringConfig configures score caching.
type ScoringConfig struct {
	ScoreTTL time.Duration `yaml:"score_ttl"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
	File   string `yaml:"file"`   // empty = stderr
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	SCOREAPI_SERVER_HOST         - Server host (default: 0.0.0.0)
//	SCOREAPI_SERVER_PORT         - Server port (default: 8080)
//	SCOREAPI_AUTH_SALT           - Account token salt (default: Otus)
//	SCOREAPI_AUTH_ADMIN_LOGIN    - Admin login (default: admin)
//	SCOREAPI_AUTH_ADMIN_SALT     - Admin token salt (default: 42)
//	SCOREAPI_AUTH_DIGEST         - Token digest (default: sha512)
//	SCOREAPI_STORE_BACKEND       - memory, redis, sqlite or postgres (default: memory)
//	SCOREAPI_STORE_MAX_ATTEMPTS  - Attempts per store call (default: 3)
//	SCOREAPI_STORE_BACKOFF       - Wait between attempts (default: 200ms)
//	SCOREAPI_REDIS_ADDR          - Redis address (default: localhost:6379)
//	SCOREAPI_REDIS_PASSWORD      - Redis password
//	SCOREAPI_REDIS_DB            - Redis database number
//	SCOREAPI_SQLITE_DSN          - SQLite path (default: scoreapi.db)
//	SCOREAPI_POSTGRES_DSN        - Postgres connection string
//	SCOREAPI_SCORE_TTL           - Score cache lifetime (default: 1h)
//	SCOREAPI_LOG_LEVEL           - Log level: debug, info, warn, error (default: info)
//	SCOREAPI_LOG_FORMAT          - Log format: json or console (default: json)
//	SCOREAPI_LOG_FILE            - Log file (default: stderr)
//	SCOREAPI_METRICS_ENABLED     - Enable /metrics endpoint (default: false)
//	SCOREAPI_RATELIMIT_ENABLED   - Enable per-client rate limiting (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	return finish(&cfg)
}

// LoadWithFallback loads path when it exists and falls back to
// environment variables otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	// Environment variables always override file-based configuration.
	applyEnvOverrides(cfg)

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies SCOREAPI_* environment variables to the config.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("SCOREAPI_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SCOREAPI_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SCOREAPI_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("SCOREAPI_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("SCOREAPI_RATELIMIT_ENABLED"); v != "" {
		cfg.Server.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("SCOREAPI_RATELIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("SCOREAPI_RATELIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit.Burst = n
		}
	}

	// Auth configuration
	if v := os.Getenv("SCOREAPI_AUTH_SALT"); v != "" {
		cfg.Auth.Salt = v
	}
	if v := os.Getenv("SCOREAPI_AUTH_ADMIN_LOGIN"); v != "" {
		cfg.Auth.AdminLogin = v
	}
	if v := os.Getenv("SCOREAPI_AUTH_ADMIN_SALT"); v != "" {
		cfg.Auth.AdminSalt = v
	}
	if v := os.Getenv("SCOREAPI_AUTH_DIGEST"); v != "" {
		cfg.Auth.Digest = v
	}

	// Store configuration
	if v := os.Getenv("SCOREAPI_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("SCOREAPI_STORE_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.MaxAttempts = n
		}
	}
	if v := os.Getenv("SCOREAPI_STORE_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.Backoff = d
		}
	}
	if v := os.Getenv("SCOREAPI_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := os.Getenv("SCOREAPI_REDIS_PASSWORD"); v != "" {
		cfg.Store.Redis.Password = v
	}
	if v := os.Getenv("SCOREAPI_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.Redis.DB = n
		}
	}
	if v := os.Getenv("SCOREAPI_SQLITE_DSN"); v != "" {
		cfg.Store.SQLite.DSN = v
	}
	if v := os.Getenv("SCOREAPI_POSTGRES_DSN"); v != "" {
		cfg.Store.Postgres.DSN = v
	}

	// Scoring configuration
	if v := os.Getenv("SCOREAPI_SCORE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scoring.ScoreTTL = d
		}
	}

	// Logging configuration
	if v := os.Getenv("SCOREAPI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SCOREAPI_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SCOREAPI_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	// Metrics configuration
	if v := os.Getenv("SCOREAPI_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("SCOREAPI_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.RateLimit.RPS == 0 {
		cfg.Server.RateLimit.RPS = 10
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 20
	}

	if cfg.Auth.Salt == "" {
		cfg.Auth.Salt = "Otus"
	}
	if cfg.Auth.AdminLogin == "" {
		cfg.Auth.AdminLogin = "admin"
	}
	if cfg.Auth.AdminSalt == "" {
		cfg.Auth.AdminSalt = "42"
	}
	if cfg.Auth.Digest == "" {
		cfg.Auth.Digest = "sha512"
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendMemory
	}
	if cfg.Store.MaxAttempts == 0 {
		cfg.Store.MaxAttempts = 3
	}
	if cfg.Store.Backoff == 0 {
		cfg.Store.Backoff = 200 * time.Millisecond
	}
	if cfg.Store.Redis.Addr == "" {
		cfg.Store.Redis.Addr = "localhost:6379"
	}
	if cfg.Store.Redis.DialTimeout == 0 {
		cfg.Store.Redis.DialTimeout = time.Second
	}
	if cfg.Store.Redis.ReadTimeout == 0 {
		cfg.Store.Redis.ReadTimeout = time.Second
	}
	if cfg.Store.Redis.WriteTimeout == 0 {
		cfg.Store.Redis.WriteTimeout = time.Second
	}
	if cfg.Store.SQLite.DSN == "" {
		cfg.Store.SQLite.DSN = "scoreapi.db"
	}

	if cfg.Scoring.ScoreTTL == 0 {
		cfg.Scoring.ScoreTTL = time.Hour
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit.Enabled && cfg.Server.RateLimit.RPS < 0 {
		return fmt.Errorf("server.rate_limit.rps must not be negative")
	}

	validDigests := map[string]bool{"sha512": true, "sha3-512": true, "blake2b-512": true}
	if !validDigests[strings.ToLower(cfg.Auth.Digest)] {
		return fmt.Errorf("auth.digest must be one of: sha512, sha3-512, blake2b-512, got %q", cfg.Auth.Digest)
	}

	validBackends := map[string]bool{
		BackendMemory: true, BackendRedis: true, BackendSQLite: true, BackendPostgres: true,
	}
	if !validBackends[cfg.Store.Backend] {
		return fmt.Errorf("store.backend must be one of: memory, redis, sqlite, postgres, got %q", cfg.Store.Backend)
	}
	if cfg.Store.Backend == BackendPostgres && cfg.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required when store.backend is 'postgres'")
	}
	if cfg.Store.MaxAttempts < 1 {
		return fmt.Errorf("store.max_attempts must be at least 1, got %d", cfg.Store.MaxAttempts)
	}
	if cfg.Store.Backoff < 0 {
		return fmt.Errorf("store.backoff must not be negative")
	}

	if cfg.Scoring.ScoreTTL < 0 {
		return fmt.Errorf("scoring.score_ttl must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}

// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config is the top-level splitsettle.yaml configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	StaticDir       string        `yaml:"static_dir,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig sets the minimum log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig configures JWT issuance.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Type        string `yaml:"type"` // memory, sqlite or postgres
	SQLitePath  string `yaml:"sqlite_path,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
	SeedDemo    bool   `yaml:"seed_demo"`
}

// RedisConfig points at the Redis instance used for token revocation.
// An empty Addr keeps revocations in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// Default returns a Config suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Type:       StorageSQLite,
			SQLitePath: "./data/splitsettle.db",
		},
	}
}

// Load reads a YAML file on top of the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("LISTEN_ADDR", &c.Server.Addr)
	str("STATIC_PATH", &c.Server.StaticDir)
	str("LOG_LEVEL", &c.Log.Level)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("STORAGE_TYPE", &c.Storage.Type)
	str("DB_PATH", &c.Storage.SQLitePath)
	str("DATABASE_URL", &c.Storage.PostgresDSN)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)

	var errs error
	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		errs = multierr.Append(errs, wrapEnv("TOKEN_TTL", err))
		if err == nil {
			c.Auth.TokenTTL = ttl
		}
	}
	if v, ok := lookup("SEED_DEMO"); ok && v != "" {
		seed, err := strconv.ParseBool(v)
		errs = multierr.Append(errs, wrapEnv("SEED_DEMO", err))
		if err == nil {
			c.Storage.SeedDemo = seed
		}
	}
	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		errs = multierr.Append(errs, wrapEnv("REDIS_DB", err))
		if err == nil {
			c.Redis.DB = db
		}
	}
	return errs
}

func wrapEnv(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("env %s: %w", key, err)
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs error
	if c.Server.Addr == "" {
		errs = multierr.Append(errs, errors.New("server.addr is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Auth.JWTSecret == "" {
		errs = multierr.Append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = multierr.Append(errs, errors.New("auth.token_ttl must be positive"))
	}
	switch c.Storage.Type {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			errs = multierr.Append(errs, errors.New("storage.sqlite_path is required for sqlite storage"))
		}
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = multierr.Append(errs, errors.New("storage.postgres_dsn is required for postgres storage"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown storage.type %q", c.Storage.Type))
	}
	return errs
}

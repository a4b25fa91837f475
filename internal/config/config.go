// Package config loads the portal CLI configuration.
//
// Sources, highest priority first:
//  1. explicit --config path;
//  2. PORTAL_CONFIG;
//  3. ./portal.yaml;
//  4. environment only (cleanenv).
//
// Environment variables always overlay values read from a file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	portal "github.com/miniapp-agency/portal"
)

const (
	// EnvConfigPath names the config file when --config is absent.
	EnvConfigPath = "PORTAL_CONFIG"
	// LocalFile is read from the working directory as a last resort.
	LocalFile = "portal.yaml"
)

const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	API     APIConfig     `yaml:"api"`
	Admin   AdminConfig   `yaml:"admin"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// APIConfig points at the portal backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"PORTAL_API_BASE_URL" env-default:"http://localhost:8080"`
	Timeout time.Duration `yaml:"timeout"  env:"PORTAL_API_TIMEOUT"  env-default:"10s"`
}

// AdminConfig names the administrator account.
type AdminConfig struct {
	Email string `yaml:"email" env:"PORTAL_ADMIN_EMAIL"`
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	Backend     string        `yaml:"backend"      env:"PORTAL_STORAGE"      env-default:"file"`
	Path        string        `yaml:"path"         env:"PORTAL_STORAGE_PATH"`
	RedisURL    string        `yaml:"redis_url"    env:"PORTAL_REDIS_URL"    env-default:"redis://localhost:6379/0"`
	RedisPrefix string        `yaml:"redis_prefix" env:"PORTAL_REDIS_PREFIX" env-default:"portal"`
	RedisTTL    time.Duration `yaml:"redis_ttl"    env:"PORTAL_REDIS_TTL"    env-default:"0s"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"  env:"PORTAL_LOG_LEVEL"  env-default:"warn"`
	Format string `yaml:"format" env:"PORTAL_LOG_FORMAT" env-default:"text"`
}

// HTTPConfig configures `portal serve`. Rate limiting needs the redis
// storage backend; zero attempts disables it.
type HTTPConfig struct {
	Addr              string        `yaml:"addr"                env:"PORTAL_HTTP_ADDR"                env-default:"127.0.0.1:8090"`
	RateLimitAttempts int           `yaml:"rate_limit_attempts" env:"PORTAL_HTTP_RATE_LIMIT_ATTEMPTS" env-default:"10"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"   env:"PORTAL_HTTP_RATE_LIMIT_WINDOW"   env-default:"1m"`
}

// NotifyConfig controls how notifications reach the terminal. Delivery is
// asynchronous unless Sync is set.
type NotifyConfig struct {
	Sync       bool `yaml:"sync"        env:"PORTAL_NOTIFY_SYNC"`
	BufferSize int  `yaml:"buffer_size" env:"PORTAL_NOTIFY_BUFFER_SIZE" env-default:"64"`
}

// MustLoad panics when Load fails.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the first available source and
// validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
		return &cfg, cfg.Validate()
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) PORTAL_CONFIG
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./portal.yaml
	if _, err := os.Stat(LocalFile); err == nil {
		return tryRead(LocalFile)
	}

	// 4) env only
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, %s, %s or env vars: %w", EnvConfigPath, LocalFile, err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks the fields the engine config does not cover.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("%w: storage backend %q (want file, redis or memory)", ErrInvalid, c.Storage.Backend)
	}
	if c.Storage.RedisTTL < 0 {
		return fmt.Errorf("%w: storage redis_ttl must be >= 0", ErrInvalid)
	}
	if c.HTTP.RateLimitAttempts < 0 || c.HTTP.RateLimitWindow < 0 {
		return fmt.Errorf("%w: http rate limit must be >= 0", ErrInvalid)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q (want text or json)", ErrInvalid, c.Log.Format)
	}
	if email := strings.TrimSpace(c.Admin.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("%w: admin email %q", ErrInvalid, email)
		}
	}
	return nil
}

// SessionPath returns the file used by the file backend. Without an explicit
// path it lives in the user config directory.
func (c *Config) SessionPath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve session path: %w", err)
	}
	return filepath.Join(dir, "miniapp-portal", "session.json"), nil
}

// Engine maps the file configuration onto the engine configuration.
func (c *Config) Engine() portal.Config {
	out := portal.DefaultConfig()
	out.API.BaseURL = c.API.BaseURL
	if c.API.Timeout > 0 {
		out.API.Timeout = c.API.Timeout
	}
	out.Admin.Email = c.Admin.Email
	out.Notify.Async = !c.Notify.Sync
	if c.Notify.BufferSize > 0 {
		out.Notify.BufferSize = c.Notify.BufferSize
	}
	out.Metrics.EnableLatencyHistograms = true
	return out
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
	return lvl, nil
}

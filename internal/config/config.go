package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	ListenAddr        string        `yaml:"listen_addr" env:"GW_LISTEN_ADDR" env-default:":3000"`
	MetadataBaseURL   string        `yaml:"metadata_base_url" env:"GW_METADATA_BASE_URL" env-default:"http://localhost:8080"`
	FileBaseURL       string        `yaml:"file_base_url" env:"GW_FILE_BASE_URL" env-default:"http://localhost:8080"`
	FilesAspect       string        `yaml:"files_aspect" env:"GW_FILES_ASPECT" env-default:"atex.Files"`
	RoutePrefix       string        `yaml:"route_prefix" env:"GW_ROUTE_PREFIX" env-default:"/"`
	UpstreamRPS       float64       `yaml:"upstream_rps" env:"GW_UPSTREAM_RPS" env-default:"0"`
	UpstreamBurst     int           `yaml:"upstream_burst" env:"GW_UPSTREAM_BURST" env-default:"1"`
	UnavailableStatus int           `yaml:"unavailable_status" env:"GW_UNAVAILABLE_STATUS" env-default:"404"`
	DBPath            string        `yaml:"db_path" env:"GW_DB_PATH" env-default:""`
	DeliveryLogRows   int           `yaml:"delivery_log_rows" env:"GW_DELIVERY_LOG_ROWS" env-default:"10000"`
	AdminToken        string        `yaml:"admin_token" env:"GW_ADMIN_TOKEN" env-default:""`
	LogLevel          string        `yaml:"log_level" env:"GW_LOG_LEVEL" env-default:"info"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"GW_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a YAML, TOML, JSON or .env file and then applies
// environment overrides on top of it.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values cleanenv cannot check on its own.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"metadata base url": c.MetadataBaseURL,
		"file base url":     c.FileBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q: scheme and host are required", name, raw)
		}
	}
	if !strings.HasPrefix(c.RoutePrefix, "/") {
		return fmt.Errorf("route prefix %q must start with /", c.RoutePrefix)
	}
	if c.UnavailableStatus < 400 || c.UnavailableStatus > 599 {
		return fmt.Errorf("unavailable status %d is not an error status", c.UnavailableStatus)
	}
	if c.UpstreamRPS < 0 {
		return errors.New("upstream rps must not be negative")
	}
	if c.FilesAspect == "" {
		return errors.New("files aspect is required")
	}
	if c.DeliveryLogRows < 1 {
		return errors.New("delivery log rows must be at least 1")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package config defines the dayplan daemon configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level daemon configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	Assistant AssistantConfig `json:"assistant" yaml:"assistant"`
	Jobs      JobsConfig      `json:"jobs" yaml:"jobs"`
	LogLevel  string          `json:"log_level" yaml:"log_level" env:"DAYPLAN_LOG_LEVEL"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr              string        `json:"addr" yaml:"addr" env:"DAYPLAN_ADDR"` // listen address, e.g., ":8080"
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	// RequestTimeout bounds non-streaming API calls.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" env:"DAYPLAN_REQUEST_TIMEOUT"`
}

// DatabaseConfig selects the store driver.
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver" env:"DAYPLAN_DB_DRIVER"` // "sqlite" or "pgx"
	DSN    string `json:"dsn" yaml:"dsn" env:"DAYPLAN_DB_DSN"`
}

// AuthConfig controls session tokens.
type AuthConfig struct {
	// JWTSecret signs session tokens. Empty generates a per-process secret,
	// which logs everyone out on restart.
	JWTSecret  string        `json:"jwt_secret" yaml:"jwt_secret" env:"DAYPLAN_JWT_SECRET"`
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl" env:"DAYPLAN_SESSION_TTL"`
	BcryptCost int           `json:"bcrypt_cost,omitempty" yaml:"bcrypt_cost"`
}

// AssistantConfig selects and tunes the model behind /api/chat.
type AssistantConfig struct {
	Provider  string        `json:"provider" yaml:"provider" env:"DAYPLAN_ASSISTANT_PROVIDER"` // "anthropic", "openai", "mock"
	Model     string        `json:"model,omitempty" yaml:"model" env:"DAYPLAN_ASSISTANT_MODEL"`
	APIKey    string        `json:"-" yaml:"api_key" env:"DAYPLAN_ASSISTANT_API_KEY"`
	BaseURL   string        `json:"base_url,omitempty" yaml:"base_url" env:"DAYPLAN_ASSISTANT_BASE_URL"`
	MaxTokens int           `json:"max_tokens,omitempty" yaml:"max_tokens"`
	MaxSteps  int           `json:"max_steps" yaml:"max_steps" env:"DAYPLAN_ASSISTANT_MAX_STEPS"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout" env:"DAYPLAN_ASSISTANT_TIMEOUT"`
}

// JobsConfig holds cron specs for background jobs. An empty spec disables
// the job.
type JobsConfig struct {
	SessionPurge string `json:"session_purge" yaml:"session_purge" env:"DAYPLAN_JOB_SESSION_PURGE"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			RequestTimeout:    15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./data/dayplan.db",
		},
		Auth: AuthConfig{
			SessionTTL: 7 * 24 * time.Hour,
		},
		Assistant: AssistantConfig{
			Provider: "mock",
			MaxSteps: 5,
			Timeout:  30 * time.Second,
		},
		Jobs: JobsConfig{
			SessionPurge: "@hourly",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if cfg.Assistant.APIKey == "" {
		cfg.Assistant.APIKey = providerKey(cfg.Assistant.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// providerKey falls back to the vendor's conventional variable.
func providerKey(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: must be sqlite or pgx", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	switch c.Assistant.Provider {
	case "mock":
	case "anthropic", "openai":
		if c.Assistant.APIKey == "" {
			errs = append(errs, fmt.Errorf("assistant.api_key is required for provider %q", c.Assistant.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("assistant.provider %q: must be anthropic, openai or mock", c.Assistant.Provider))
	}
	if c.Assistant.MaxSteps <= 0 {
		errs = append(errs, errors.New("assistant.max_steps must be positive"))
	}
	if c.Assistant.Timeout <= 0 {
		errs = append(errs, errors.New("assistant.timeout must be positive"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

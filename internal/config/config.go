// Package config loads the intent engine configuration and builds its logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Config is the root configuration for the API server and the CLI.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Backends   BackendsConfig   `mapstructure:"backends"`
	Validation ValidationConfig `mapstructure:"validation"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr                string `mapstructure:"addr"`
	ReadHeaderTimeoutMS int    `mapstructure:"read_header_timeout_ms"`
	ShutdownTimeoutMS   int    `mapstructure:"shutdown_timeout_ms"`
}

// StorageConfig selects where drift reports are kept.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"` // sqlite, postgres or none
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// BackendsConfig configures each intent backend. A backend is registered
// only when enabled.
type BackendsConfig struct {
	Ollama OllamaConfig `mapstructure:"ollama"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Gemini GeminiConfig `mapstructure:"gemini"`
}

type OllamaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Model   string `mapstructure:"model"`
}

type OpenAIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type GeminiConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// ValidationConfig holds the default validator options.
type ValidationConfig struct {
	Strict    bool `mapstructure:"strict"`
	Normalize bool `mapstructure:"normalize"`
}

// RetryConfig tunes the HTTP retry wrapper used by the ollama and openai
// backends.
type RetryConfig struct {
	MaxRetries int `mapstructure:"max_retries"`
	BackoffMS  int `mapstructure:"backoff_ms"`
}

// Backoff returns BackoffMS as a duration.
func (r RetryConfig) Backoff() time.Duration {
	return time.Duration(r.BackoffMS) * time.Millisecond
}

// WorkerConfig sizes the regression battery pool.
type WorkerConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// Load reads the configuration from file, environment variables and
// defaults. If configFile is non-empty it is used directly; otherwise
// overture.yaml is searched for in ., ./configs and /etc/overture and may be
// absent.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout_ms", 15000)
	v.SetDefault("server.shutdown_timeout_ms", 10000)
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "overture.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("backends.ollama.enabled", true)
	v.SetDefault("backends.ollama.host", "http://localhost:11434")
	v.SetDefault("backends.ollama.model", "llama3.1:8b")
	v.SetDefault("backends.openai.enabled", false)
	v.SetDefault("backends.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("backends.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("backends.openai.model", "gpt-4o-mini")
	v.SetDefault("backends.gemini.enabled", false)
	v.SetDefault("backends.gemini.api_key", "${GEMINI_API_KEY}")
	v.SetDefault("backends.gemini.model", "gemini-2.0-flash")
	v.SetDefault("validation.strict", false)
	v.SetDefault("validation.normalize", true)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.backoff_ms", 500)
	v.SetDefault("worker.workers", 4)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("overture")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/overture")
	}

	// Environment variables: OVERTURE_STORAGE_DRIVER, OVERTURE_BACKENDS_OPENAI_API_KEY, etc.
	v.SetEnvPrefix("OVERTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// Secrets may be given as "${VAR}" references.
	cfg.Storage.PostgresDSN = resolveEnvRef(cfg.Storage.PostgresDSN)
	cfg.Backends.OpenAI.APIKey = resolveEnvRef(cfg.Backends.OpenAI.APIKey)
	cfg.Backends.Gemini.APIKey = resolveEnvRef(cfg.Backends.Gemini.APIKey)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres, DriverNone:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.PostgresDSN == "" {
		return errors.New("config: storage.postgres_dsn is required for the postgres driver")
	}
	return nil
}

// resolveEnvRef replaces a "${VAR_NAME}" value with the variable's value.
// An unset variable resolves to the empty string.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

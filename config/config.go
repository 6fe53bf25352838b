// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "blogapi.yaml"

// MemoryDSN selects the in-memory record store.
const MemoryDSN = ":memory:"

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"`
	// Port is a number or a unix socket / named pipe path.
	Port         string        `yaml:"port" validate:"required"`
	BaseURL      string        `yaml:"base_url" validate:"omitempty,url"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// DatabaseConfig configures the record store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" validate:"required"` // ":memory:" for the in-memory store
}

// APIConfig configures document serialization.
type APIConfig struct {
	Namespace      string `yaml:"namespace"`
	IncludePrimary bool   `yaml:"include_primary"`
	Concurrency    int    `yaml:"concurrency" validate:"gte=0"` // 0 = unbounded
	SelfLinks      bool   `yaml:"self_links"`
	DefinitionsDir string `yaml:"definitions_dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`                      // Enable metrics endpoint
	Path    string `yaml:"path" validate:"startswith=/"` // default: /metrics
}

// Defaults returns the configuration used for unset fields.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "4000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{DSN: "blogapi.db"},
		API:      APIConfig{SelfLinks: true},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML bytes. Unset keys keep their defaults.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv creates configuration from defaults and environment variables.
//
// Environment variables:
//
//	BLOGAPI_SERVER_HOST          - Server host (default: 0.0.0.0)
//	BLOGAPI_SERVER_PORT          - Port or socket path (default: 4000)
//	BLOGAPI_SERVER_BASE_URL      - Link domain (default: request scheme+host)
//	BLOGAPI_DATABASE_DSN         - SQLite path or :memory: (default: blogapi.db)
//	BLOGAPI_API_NAMESPACE        - URL namespace, e.g. api/v1
//	BLOGAPI_API_INCLUDE_PRIMARY  - Allow primary resources in included
//	BLOGAPI_API_CONCURRENCY      - Relation fan-out limit (default: 0 = unbounded)
//	BLOGAPI_API_SELF_LINKS       - Emit resource self links (default: true)
//	BLOGAPI_API_DEFINITIONS_DIR  - Directory of serializer definition overrides
//	BLOGAPI_LOG_LEVEL            - Log level: debug, info, warn, error (default: info)
//	BLOGAPI_LOG_FORMAT           - Log format: json or console (default: json)
//	BLOGAPI_METRICS_ENABLED      - Enable metrics endpoint (default: true)
//	BLOGAPI_METRICS_PATH         - Metrics path (default: /metrics)
func LoadFromEnv() (*Config, error) {
	cfg := Defaults()
	return finish(&cfg)
}

// LoadWithFallback loads path when it exists and otherwise falls back to
// environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies BLOGAPI_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) error {
	// Server configuration
	if v := os.Getenv("BLOGAPI_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("BLOGAPI_SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("BLOGAPI_SERVER_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("BLOGAPI_SERVER_READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLOGAPI_SERVER_READ_TIMEOUT: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}
	if v := os.Getenv("BLOGAPI_SERVER_WRITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLOGAPI_SERVER_WRITE_TIMEOUT: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	// Database configuration
	if v := os.Getenv("BLOGAPI_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// API configuration
	if v, ok := os.LookupEnv("BLOGAPI_API_NAMESPACE"); ok {
		cfg.API.Namespace = v
	}
	if v := os.Getenv("BLOGAPI_API_INCLUDE_PRIMARY"); v != "" {
		cfg.API.IncludePrimary = parseBool(v)
	}
	if v := os.Getenv("BLOGAPI_API_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BLOGAPI_API_CONCURRENCY: %w", err)
		}
		cfg.API.Concurrency = n
	}
	if v := os.Getenv("BLOGAPI_API_SELF_LINKS"); v != "" {
		cfg.API.SelfLinks = parseBool(v)
	}
	if v := os.Getenv("BLOGAPI_API_DEFINITIONS_DIR"); v != "" {
		cfg.API.DefinitionsDir = v
	}

	// Logging configuration
	if v := os.Getenv("BLOGAPI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BLOGAPI_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("BLOGAPI_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("BLOGAPI_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	return nil
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// setDefaults fills fields a file set to an empty value.
func setDefaults(cfg *Config) {
	def := Defaults()

	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = def.Server.Port
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = def.Database.DSN
	}

	cfg.API.Namespace = strings.Trim(cfg.API.Namespace, "/")

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = def.Metrics.Path
	}
}

var validate = func() func(*Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return func(cfg *Config) error {
		err := v.Struct(cfg)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s failed %q", fieldPath(fe.Namespace()), fe.Tag())
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}()

// fieldPath turns "Config.logging.level" into "logging.level".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// IsMemory reports whether the database DSN selects the in-memory store.
func (c *Config) IsMemory() bool {
	return c.Database.DSN == MemoryDSN
}

// Package config loads the chatsim process configuration from an optional
// YAML file, a .env file and CHATSIM_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/aretw0/chatsim/internal/validator"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "CHATSIM_"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Input   InputConfig   `mapstructure:"input" yaml:"input"`
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// RedisConfig points the intent publisher at a Redis stream.
// An empty Addr disables the publisher.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Stream   string `mapstructure:"stream" yaml:"stream"`
	MaxLen   int64  `mapstructure:"max_len" yaml:"max_len"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// InputConfig bounds user-supplied free text.
type InputConfig struct {
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`
}

// CatalogConfig points at a YAML catalog replacing the built-in one.
// An empty Path keeps domain.DefaultCatalog.
type CatalogConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Redis: RedisConfig{
			Stream: "chatsim:intents",
			MaxLen: 1000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Input: InputConfig{
			MaxSize: 4096,
		},
	}
}

// Load builds the configuration. path is an optional YAML file; envFiles
// default to ".env" and are skipped when missing.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	overlayEnv(raw, os.Environ())

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overlayEnv maps CHATSIM_<SECTION>_<KEY>=value onto raw[section][key].
func overlayEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_")
		if !ok || key == "" {
			continue
		}
		sub, _ := raw[section].(map[string]any)
		if sub == nil {
			sub = map[string]any{}
			raw[section] = sub
		}
		sub[key] = value
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Redis.Enabled() && c.Redis.Stream == "" {
		return fmt.Errorf("redis.stream cannot be empty")
	}
	if c.Redis.MaxLen <= 0 {
		return fmt.Errorf("redis.max_len must be > 0")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	if c.Input.MaxSize <= 0 {
		return fmt.Errorf("input.max_size must be > 0")
	}
	return nil
}

// LoadCatalog reads the configured catalog, or returns the default one when
// no path is set. A loaded catalog must pass validator.ValidateCatalog.
func (c *Config) LoadCatalog() (domain.Catalog, error) {
	if c.Catalog.Path == "" {
		return domain.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(c.Catalog.Path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to read catalog %s: %w", c.Catalog.Path, err)
	}
	var cat domain.Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to parse catalog %s: %w", c.Catalog.Path, err)
	}
	if err := validator.ValidateCatalog(cat); err != nil {
		return domain.Catalog{}, fmt.Errorf("invalid catalog %s: %w", c.Catalog.Path, err)
	}
	return cat, nil
}

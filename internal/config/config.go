// Package config loads and validates the loader's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

// Environment variables that override file-based credentials, so API keys
// can stay out of checked-in config files.
const (
	EnvAPIKey    = "NYT_API_KEY"
	EnvAPISecret = "NYT_API_SECRET"
)

// Credentials holds the Article Search API credentials. The secret is part
// of the provider's credential pair but is not sent on search requests.
type Credentials struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// APIConfig scopes the upstream query.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Query   string `yaml:"query"`
	Sort    string `yaml:"sort"`
}

// LoaderConfig controls batching and pagination.
type LoaderConfig struct {
	BatchSize         int    `yaml:"batch_size"`
	StartDate         string `yaml:"start_date"`
	CooldownSeconds   int    `yaml:"cooldown_seconds"`
	FaultDelaySeconds int    `yaml:"fault_delay_seconds"`
}

// CacheConfig controls the optional Redis response cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	RedisAddr  string `yaml:"redis_addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// SinkConfig controls where batches are written.
type SinkConfig struct {
	// Path is the JSONL output file; a ".gz" suffix enables compression.
	Path string `yaml:"path"`
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the server.
	Addr string `yaml:"addr"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config is the full loader configuration.
type Config struct {
	Credentials Credentials   `yaml:"credentials"`
	API         APIConfig     `yaml:"api"`
	Loader      LoaderConfig  `yaml:"loader"`
	Cache       CacheConfig   `yaml:"cache"`
	Sink        SinkConfig    `yaml:"sink"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Logging     LoggingConfig `yaml:"logging"`
}

// Load reads and unmarshals the configuration file located at the given
// path, applies environment overrides and defaults, and validates the
// result.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Environment wins over the file for credentials.
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Credentials.APIKey = key
	}
	if secret := os.Getenv(EnvAPISecret); secret != "" {
		cfg.Credentials.APISecret = secret
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.Sort == "" {
		c.API.Sort = "oldest"
	}
	if c.Loader.BatchSize == 0 {
		c.Loader.BatchSize = 10
	}
	if c.Loader.CooldownSeconds == 0 {
		c.Loader.CooldownSeconds = 12
	}
	if c.Loader.FaultDelaySeconds == 0 {
		c.Loader.FaultDelaySeconds = 12
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Sink.Path == "" {
		c.Sink.Path = "articles.jsonl"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Credentials.APIKey == "" {
		return fmt.Errorf("credentials.api_key is required (or set %s)", EnvAPIKey)
	}
	if c.API.Query == "" {
		return fmt.Errorf("api.query is required")
	}
	if c.Loader.BatchSize < 0 {
		return fmt.Errorf("loader.batch_size must be positive (got %d)", c.Loader.BatchSize)
	}
	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required when cache is enabled")
	}
	return nil
}

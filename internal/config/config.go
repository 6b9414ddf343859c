// Package config loads application configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the loader and the API server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Cache    CacheConfig    `yaml:"cache"`
	Export   ExportConfig   `yaml:"export"`
	Releases ReleasesConfig `yaml:"releases"`
}

// ServerConfig holds the API server listen address.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ArchiveConfig holds fetch settings for the flat-file archive.
type ArchiveConfig struct {
	// BaseURL overrides the public archive root, mainly for tests and
	// mirrors.
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ScratchDir     string `yaml:"scratch_dir"`
	// DisableFallback makes a primary-transport failure immediately fatal.
	DisableFallback bool `yaml:"disable_fallback"`
}

// CacheConfig selects and configures the flat-file cache backend.
// Backend is one of "none", "disk", "redis", "s3".
type CacheConfig struct {
	Backend         string `yaml:"backend"`
	Dir             string `yaml:"dir"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisTTLMinutes int    `yaml:"redis_ttl_minutes"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Region        string `yaml:"s3_region"`
}

// ExportConfig holds the optional Postgres export target.
type ExportConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
}

// ReleasesConfig holds the release-schedule feed settings.
type ReleasesConfig struct {
	FeedURL      string `yaml:"feed_url"`
	LookbackDays int    `yaml:"lookback_days"`
}

// Load reads and validates a YAML config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads the config file named by BLSLOAD_CONFIG (default
// config.yaml), after loading a .env file if one exists.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("BLSLOAD_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.applyEnv()
		return cfg, cfg.validate()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Archive.TimeoutSeconds == 0 {
		c.Archive.TimeoutSeconds = 60
	}
	if c.Archive.ScratchDir == "" {
		c.Archive.ScratchDir = os.TempDir()
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "none"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = ".blsload-cache"
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
	if c.Cache.RedisTTLMinutes == 0 {
		c.Cache.RedisTTLMinutes = 24 * 60
	}
	if c.Export.Table == "" {
		c.Export.Table = "bls_observations"
	}
	if c.Releases.FeedURL == "" {
		c.Releases.FeedURL = "https://www.bls.gov/feed/news_release.rss"
	}
	if c.Releases.LookbackDays == 0 {
		c.Releases.LookbackDays = 14
	}
}

// applyEnv overlays the handful of settings operators commonly override
// without editing the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("BLSLOAD_BASE_URL"); v != "" {
		c.Archive.BaseURL = v
	}
	if v := os.Getenv("BLSLOAD_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("BLSLOAD_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Export.DatabaseURL = v
	}
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "none", "disk", "redis", "s3":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "s3" && c.Cache.S3Bucket == "" {
		return fmt.Errorf("cache backend s3 requires s3_bucket")
	}
	if c.Export.Enabled && c.Export.DatabaseURL == "" {
		return fmt.Errorf("export enabled but no database_url")
	}
	return nil
}

// Package config provides runtime configuration values for the service.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every knob of the service. Field tags name the keys accepted
// in the YAML config file.
type Config struct {
	FeedURL       string        `yaml:"feed_url"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	FeedUserAgent string        `yaml:"feed_user_agent"`
	FeedMaxPages  int           `yaml:"feed_max_pages"`
	FeedPageLimit int           `yaml:"feed_page_limit"`
	FeedRPS       float64       `yaml:"feed_rps"`

	Capacity     int           `yaml:"capacity"`
	SyncInterval time.Duration `yaml:"sync_interval"`
	SyncHistory  int           `yaml:"sync_history"`

	StoreDriver      string `yaml:"store_driver"`
	SQLitePath       string `yaml:"sqlite_path"`
	PostgresDSN      string `yaml:"pg_dsn"`
	PostgresMaxConns int    `yaml:"pg_max_conns"`
	SpannerDatabase  string `yaml:"spanner_database"`

	HTTPAddr      string  `yaml:"http_addr"`
	GRPCAddr      string  `yaml:"grpc_addr"`
	ManualSyncRPS float64 `yaml:"manual_sync_rps"`

	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

var storeDrivers = []string{"memory", "sqlite", "postgres", "spanner"}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatenv(key string, def float64) float64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// durenv accepts Go durations ("90s", "1h") or a bare number of seconds.
func durenv(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second
	}
	return def
}

// FromEnv collects configuration from the environment with defaults.
func FromEnv() Config {
	return Config{
		FeedURL:       getenv("FEED_URL", "https://famme.no/products.json"),
		FetchTimeout:  durenv("FETCH_TIMEOUT", 30*time.Second),
		FeedUserAgent: getenv("FEED_USER_AGENT", "catalog-mirror/1.0"),
		FeedMaxPages:  atoienv("FEED_MAX_PAGES", 1),
		FeedPageLimit: atoienv("FEED_PAGE_LIMIT", 250),
		FeedRPS:       floatenv("FEED_RPS", 2),

		Capacity:     atoienv("CATALOG_CAPACITY", 50),
		SyncInterval: durenv("SYNC_INTERVAL", time.Hour),
		SyncHistory:  atoienv("SYNC_HISTORY", 20),

		StoreDriver:      getenv("STORE_DRIVER", "memory"),
		SQLitePath:       getenv("SQLITE_PATH", "catalog.db"),
		PostgresDSN:      getenv("PG_DSN", ""),
		PostgresMaxConns: atoienv("PG_MAX_CONNS", 4),
		SpannerDatabase:  getenv("SPANNER_DATABASE", "projects/test-project/instances/dev-instance/databases/catalog-db"),

		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		GRPCAddr:      getenv("GRPC_ADDR", ":9090"),
		ManualSyncRPS: floatenv("MANUAL_SYNC_RPS", 1),

		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
		ShutdownTimeout: durenv("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Load reads the environment and then overlays the YAML file at path, or
// at CONFIG_FILE when path is empty. Keys present in the file win.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.overlay(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must be >= 0, got %d", c.Capacity))
	}
	if c.SyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("sync interval must be positive, got %s", c.SyncInterval))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout))
	}
	if c.FeedURL == "" {
		errs = append(errs, errors.New("feed url is required"))
	}
	if !slices.Contains(storeDrivers, c.StoreDriver) {
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	if c.StoreDriver == "postgres" && c.PostgresDSN == "" {
		errs = append(errs, errors.New("pg_dsn is required for the postgres driver"))
	}
	if c.StoreDriver == "spanner" && c.SpannerDatabase == "" {
		errs = append(errs, errors.New("spanner_database is required for the spanner driver"))
	}
	return errors.Join(errs...)
}

// Package config loads service settings from an optional YAML file and
// environment variables. Environment variables always win, so a config file
// can be checked in with safe defaults and overridden per deployment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDatasetURL is the archive location used when DATASET_URL is unset.
const DefaultDatasetURL = "https://data-flair.training/blogs/download-covid-19-dataset/"

// Config holds all service settings.
type Config struct {
	DatasetURL string
	CacheDir   string
	TopN       int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	FetchTimeout    time.Duration

	// Kafka export configuration (feature-flagged).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding configuration (feature-flagged).
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// fileConfig mirrors Config for the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	DatasetURL string `yaml:"dataset_url"`
	CacheDir   string `yaml:"cache_dir"`
	TopN       int    `yaml:"top_n"`
	HTTPAddr   string `yaml:"http_addr"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Mapbox struct {
		Token     string `yaml:"token"`
		Enabled   *bool  `yaml:"enabled"`
		Timeout   string `yaml:"timeout"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"mapbox"`
}

// Load builds the configuration: defaults, then the YAML file (if any),
// then environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatasetURL:      DefaultDatasetURL,
		CacheDir:        "data",
		TopN:            10,
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
		FetchTimeout:    60 * time.Second,
		KafkaBrokers:    []string{"localhost:9092"},
		KafkaTopic:      "covid-canonical-records",
		MapboxTimeout:   5 * time.Second,
		MapboxCacheSize: 1000,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, validate(cfg)
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse CONFIG_FILE: %w", err)
	}

	if fc.DatasetURL != "" {
		cfg.DatasetURL = fc.DatasetURL
	}
	if fc.CacheDir != "" {
		cfg.CacheDir = fc.CacheDir
	}
	if fc.TopN != 0 {
		cfg.TopN = fc.TopN
	}
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if fc.Logging.Level != "" {
		cfg.LogLevel = fc.Logging.Level
	}
	if fc.Logging.Format != "" {
		cfg.LogFormat = fc.Logging.Format
	}
	if fc.Kafka.Enabled {
		cfg.KafkaEnabled = true
	}
	if len(fc.Kafka.Brokers) > 0 {
		cfg.KafkaBrokers = fc.Kafka.Brokers
	}
	if fc.Kafka.Topic != "" {
		cfg.KafkaTopic = fc.Kafka.Topic
	}
	if fc.Mapbox.Token != "" {
		cfg.MapboxToken = fc.Mapbox.Token
		cfg.MapboxEnabled = true
	}
	if fc.Mapbox.Enabled != nil {
		cfg.MapboxEnabled = *fc.Mapbox.Enabled
	}
	if fc.Mapbox.Timeout != "" {
		d, err := time.ParseDuration(fc.Mapbox.Timeout)
		if err != nil {
			return fmt.Errorf("parse mapbox.timeout: %w", err)
		}
		cfg.MapboxTimeout = d
	}
	if fc.Mapbox.CacheSize > 0 {
		cfg.MapboxCacheSize = fc.Mapbox.CacheSize
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATASET_URL"); v != "" {
		cfg.DatasetURL = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if v := os.Getenv("TOP_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New("TOP_N must be a positive integer")
		}
		cfg.TopN = n
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return errors.New("invalid SHUTDOWN_TIMEOUT")
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return errors.New("invalid FETCH_TIMEOUT")
		}
		cfg.FetchTimeout = d
	}

	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = parseBrokers(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}

	if v := os.Getenv("MAPBOX_TOKEN"); v != "" {
		cfg.MapboxToken = v
		cfg.MapboxEnabled = true
	}
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}
	if v := os.Getenv("MAPBOX_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return errors.New("invalid MAPBOX_TIMEOUT")
		}
		cfg.MapboxTimeout = d
	}
	if v := os.Getenv("MAPBOX_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New("MAPBOX_CACHE_SIZE must be a positive integer")
		}
		cfg.MapboxCacheSize = n
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.DatasetURL == "" {
		return errors.New("DATASET_URL is required")
	}
	if cfg.CacheDir == "" {
		return errors.New("CACHE_DIR is required")
	}
	if cfg.TopN <= 0 {
		return errors.New("TOP_N must be a positive integer")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// Package config loads telescan configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Server    ServerConfig    `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TelegramConfig holds MTProto credentials and session location.
type TelegramConfig struct {
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	SessionFile string `yaml:"session_file"`
	BotToken    string `yaml:"bot_token"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	Prefix    string `yaml:"prefix"`
	Dimension int    `yaml:"dimension"`
}

// IngestConfig tunes the pipeline.
type IngestConfig struct {
	BatchLimit   int    `yaml:"batch_limit"`
	FetchTimeout string `yaml:"fetch_timeout"`
	EmbedTimeout string `yaml:"embed_timeout"`
}

// ParseFetchTimeout returns the origin call timeout.
func (c IngestConfig) ParseFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ParseEmbedTimeout returns the embedding call timeout.
func (c IngestConfig) ParseEmbedTimeout() time.Duration {
	d, err := time.ParseDuration(c.EmbedTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ScheduleConfig configures the periodic sweep.
type ScheduleConfig struct {
	Interval string `yaml:"interval"`
}

// ParseInterval returns the sweep interval as time.Duration.
func (s ScheduleConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return time.Hour
	}
	return d
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./telescan.db"},
		Telegram: TelegramConfig{
			SessionFile: "./telescan.session",
		},
		Embedding: EmbeddingConfig{
			Host:      "http://localhost:11434/v1",
			Model:     "intfloat/multilingual-e5-base",
			Prefix:    "passage: ",
			Dimension: 768,
		},
		Ingest: IngestConfig{
			BatchLimit:   100,
			FetchTimeout: "30s",
			EmbedTimeout: "30s",
		},
		Schedule: ScheduleConfig{Interval: "1h"},
		Server:   ServerConfig{Port: 8000},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELESCAN_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Telegram.APIID = id
		}
	}
	if v := os.Getenv("TELEGRAM_API_HASH"); v != "" {
		cfg.Telegram.APIHash = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_SESSION_FILE"); v != "" {
		cfg.Telegram.SessionFile = v
	}
	if v := os.Getenv("EMBEDDING_HOST"); v != "" {
		cfg.Embedding.Host = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("TELESCAN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

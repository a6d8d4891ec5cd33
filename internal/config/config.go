// Package config loads streamwatch configuration from a YAML file with
// environment variable expansion, .env loading, and env overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Stream    StreamConfig    `yaml:"stream"`
	Generator GeneratorConfig `yaml:"generator"`
	Server    ServerConfig    `yaml:"server"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Feed      FeedConfig      `yaml:"feed"`
}

// StreamConfig holds the live connection parameters.
type StreamConfig struct {
	// URL is the base URL of the streaming service.
	URL string `yaml:"url"`
	// EventsPath is the SSE endpoint, default "/stream".
	EventsPath string `yaml:"events_path,omitempty"`
	// PingPath is the reachability probe endpoint, default "/stream/ping".
	PingPath string `yaml:"ping_path,omitempty"`
	// Token is the bearer token passed to the stream service.
	Token string `yaml:"token,omitempty"`
	// Capacity is the bounded buffer size, default 100.
	Capacity int `yaml:"capacity,omitempty"`
	// ViewerID is the identity used for "mine only" filtering.
	ViewerID string `yaml:"viewer_id,omitempty"`
}

// GeneratorConfig controls the synthetic event generator. Intervals are
// duration strings ("500ms", "2s"); parsed values are available through
// Intervals after Load.
type GeneratorConfig struct {
	Seed        int64    `yaml:"seed,omitempty"`
	Actors      []string `yaml:"actors,omitempty"`
	MinInterval string   `yaml:"min_interval,omitempty"`
	MaxInterval string   `yaml:"max_interval,omitempty"`

	minInterval time.Duration
	maxInterval time.Duration
}

// Intervals returns the parsed generation interval bounds.
func (g *GeneratorConfig) Intervals() (min, max time.Duration) {
	return g.minInterval, g.maxInterval
}

// ServerConfig configures the demo stream server.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// ArchiveConfig configures session persistence. An empty path disables it.
type ArchiveConfig struct {
	Path string `yaml:"path,omitempty"`
}

// FeedConfig configures the optional NATS injector source.
type FeedConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			EventsPath: "/stream",
			PingPath:   "/stream/ping",
			Capacity:   100,
		},
		Generator: GeneratorConfig{
			MinInterval: "500ms",
			MaxInterval: "2500ms",
		},
		Server: ServerConfig{
			Addr: ":3001",
		},
		Feed: FeedConfig{
			Subject: "streamwatch.events",
		},
	}
}

// Load loads configuration from the specified file. A missing file is not
// fatal: defaults plus environment overrides apply, so the CLI works without
// any config at all.
func Load(configPath string) (*Config, error) {
	// Load .env/.env.local if present; existing process env wins.
	if err := godotenv.Load(".env"); err == nil {
		slog.Debug("loaded environment variables from .env")
	} else if err := godotenv.Load(".env.local"); err == nil {
		slog.Debug("loaded environment variables from .env.local")
	}

	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			slog.Debug("configuration file not found, using defaults", "path", configPath)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			// Expand ${VAR} references in the YAML content before parsing.
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with STREAMWATCH_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("STREAMWATCH_STREAM_URL"); v != "" {
		c.Stream.URL = v
	}
	if v := os.Getenv("STREAMWATCH_TOKEN"); v != "" {
		c.Stream.Token = v
	}
	if v := os.Getenv("STREAMWATCH_VIEWER_ID"); v != "" {
		c.Stream.ViewerID = v
	}
	if v := os.Getenv("STREAMWATCH_ARCHIVE_PATH"); v != "" {
		c.Archive.Path = v
	}
	if v := os.Getenv("STREAMWATCH_NATS_URL"); v != "" {
		c.Feed.URL = v
		c.Feed.Enabled = true
	}
}

// normalize fills defaults for zero values and validates ranges.
func (c *Config) normalize() error {
	if c.Stream.EventsPath == "" {
		c.Stream.EventsPath = "/stream"
	}
	if c.Stream.PingPath == "" {
		c.Stream.PingPath = "/stream/ping"
	}
	if c.Stream.Capacity <= 0 {
		c.Stream.Capacity = 100
	}
	if c.Generator.MinInterval == "" {
		c.Generator.MinInterval = "500ms"
	}
	if c.Generator.MaxInterval == "" {
		c.Generator.MaxInterval = "2500ms"
	}
	minDur, err := time.ParseDuration(c.Generator.MinInterval)
	if err != nil {
		return fmt.Errorf("invalid generator min_interval: %w", err)
	}
	maxDur, err := time.ParseDuration(c.Generator.MaxInterval)
	if err != nil {
		return fmt.Errorf("invalid generator max_interval: %w", err)
	}
	if minDur <= 0 || maxDur < minDur {
		return fmt.Errorf("generator interval out of range: min=%s max=%s",
			c.Generator.MinInterval, c.Generator.MaxInterval)
	}
	c.Generator.minInterval = minDur
	c.Generator.maxInterval = maxDur
	if c.Server.Addr == "" {
		c.Server.Addr = ":3001"
	}
	if c.Feed.Enabled && c.Feed.URL == "" {
		return fmt.Errorf("feed is enabled but feed.url is empty")
	}
	if c.Feed.Subject == "" {
		c.Feed.Subject = "streamwatch.events"
	}
	return nil
}

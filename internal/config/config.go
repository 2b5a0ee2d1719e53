// Package config provides unified configuration loading for chartline.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/chartline/internal/chart"
)

// DefaultSourceURI is the dataset endpoint used when none is configured.
const DefaultSourceURI = "https://api.example.com/data"

// ChartlineConfig contains all chartline configuration settings.
type ChartlineConfig struct {
	// Source configures where datasets are fetched from.
	Source SourceConfig `json:"source" yaml:"source"`

	// Chart configures canvas geometry and paint.
	Chart ChartConfig `json:"chart" yaml:"chart"`

	// Server configures the local visualization server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Social configures the login and feed directory.
	Social SocialConfig `json:"social" yaml:"social"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SourceConfig configures dataset retrieval.
type SourceConfig struct {
	// URI is the dataset location (http, https or file).
	URI string `json:"uri" yaml:"uri" env:"CHARTLINE_SOURCE_URI"`

	// Timeout bounds a single fetch.
	Timeout time.Duration `json:"timeout" yaml:"timeout" env:"CHARTLINE_SOURCE_TIMEOUT"`

	// MaxBytes caps the accepted payload size.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" env:"CHARTLINE_SOURCE_MAX_BYTES"`
}

// ChartConfig configures the rendered chart.
type ChartConfig struct {
	Width       float64      `json:"width" yaml:"width"`
	Height      float64      `json:"height" yaml:"height"`
	Margin      chart.Margin `json:"margin" yaml:"margin"`
	PointRadius float64      `json:"point_radius" yaml:"point_radius"`
	PointFill   string       `json:"point_fill" yaml:"point_fill"`
	LineStroke  string       `json:"line_stroke" yaml:"line_stroke"`
	LineWidth   float64      `json:"line_width" yaml:"line_width"`
	TickCount   int          `json:"tick_count" yaml:"tick_count"`
}

// Layout converts the chart settings into a render layout.
func (c ChartConfig) Layout() chart.Layout {
	l := chart.DefaultLayout()
	l.Width = c.Width
	l.Height = c.Height
	l.Margin = c.Margin
	l.PointRadius = c.PointRadius
	l.PointFill = c.PointFill
	l.LineStroke = c.LineStroke
	l.LineWidth = c.LineWidth
	l.TickCount = c.TickCount
	return l
}

// ServerConfig configures the visualization server.
type ServerConfig struct {
	// Addr is the listen address. Port 0 picks a free port.
	Addr string `json:"addr" yaml:"addr" env:"CHARTLINE_SERVER_ADDR"`
}

// SocialConfig configures the social directory.
type SocialConfig struct {
	// DSN is the SQLite data source. Empty uses a private in-memory database.
	DSN string `json:"dsn" yaml:"dsn" env:"CHARTLINE_SOCIAL_DSN"`

	// LoginLatency and FeedLatency simulate a slow backend.
	LoginLatency time.Duration `json:"login_latency" yaml:"login_latency" env:"CHARTLINE_LOGIN_LATENCY"`
	FeedLatency  time.Duration `json:"feed_latency" yaml:"feed_latency" env:"CHARTLINE_FEED_LATENCY"`
}

// LoggingConfig configures chartline's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables event logging to <dir>/events.jsonl.
	Level string `json:"level" yaml:"level" env:"CHARTLINE_LOG_LEVEL"`

	// Dir is where events.jsonl is written. Empty disables event logging.
	Dir string `json:"dir" yaml:"dir" env:"CHARTLINE_LOG_DIR"`
}

// Default returns a ChartlineConfig with sensible defaults.
func Default() *ChartlineConfig {
	l := chart.DefaultLayout()
	return &ChartlineConfig{
		Source: SourceConfig{
			URI:      DefaultSourceURI,
			Timeout:  10 * time.Second,
			MaxBytes: 8 << 20,
		},
		Chart: ChartConfig{
			Width:       l.Width,
			Height:      l.Height,
			Margin:      l.Margin,
			PointRadius: l.PointRadius,
			PointFill:   l.PointFill,
			LineStroke:  l.LineStroke,
			LineWidth:   l.LineWidth,
			TickCount:   l.TickCount,
		},
		Server: ServerConfig{
			Addr: "localhost:0",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.chartline/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".chartline", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.chartline/config.yaml -> environment variables
func Load() (*ChartlineConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadPath loads configuration from path, then applies environment overrides.
// An empty path behaves like Load.
func LoadPath(path string) (*ChartlineConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*ChartlineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Source.URI = os.ExpandEnv(config.Source.URI)
	config.Social.DSN = os.ExpandEnv(config.Social.DSN)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *ChartlineConfig) Validate() error {
	u, err := url.Parse(c.Source.URI)
	if err != nil {
		return fmt.Errorf("invalid source uri %q: %w", c.Source.URI, err)
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return fmt.Errorf("invalid source uri %q: scheme must be http, https or file", c.Source.URI)
	}

	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive, got %v", c.Source.Timeout)
	}
	if c.Source.MaxBytes <= 0 {
		return fmt.Errorf("source max_bytes must be positive, got %d", c.Source.MaxBytes)
	}

	if err := c.Chart.Layout().Validate(); err != nil {
		return fmt.Errorf("invalid chart settings: %w", err)
	}
	if c.Chart.PointRadius < 0 {
		return fmt.Errorf("point_radius must be non-negative, got %g", c.Chart.PointRadius)
	}
	if c.Chart.TickCount < 0 {
		return fmt.Errorf("tick_count must be non-negative, got %d", c.Chart.TickCount)
	}

	if c.Social.LoginLatency < 0 || c.Social.FeedLatency < 0 {
		return fmt.Errorf("social latencies must be non-negative, got %v/%v", c.Social.LoginLatency, c.Social.FeedLatency)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies CHARTLINE_* environment variables to the config.
// Unset variables leave the current values untouched.
func applyEnvOverrides(config *ChartlineConfig) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

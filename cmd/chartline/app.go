package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/chartline/internal/config"
	"github.com/nvandessel/chartline/internal/dataset"
	"github.com/nvandessel/chartline/internal/logging"
	"github.com/nvandessel/chartline/internal/session"
	"github.com/nvandessel/chartline/internal/social"
)

// app holds what a command needs once flags and configuration are resolved.
type app struct {
	cfg     *config.ChartlineConfig
	logger  *slog.Logger
	events  *logging.EventLogger
	root    string
	jsonOut bool
}

// loadConfig loads --config (or the default locations) and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.ChartlineConfig, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	root, _ := cmd.Flags().GetString("root")
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	jsonOut, _ := cmd.Flags().GetBool("json")

	return &app{
		cfg:     cfg,
		logger:  logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
		events:  logging.NewEventLogger(cfg.Logging.Dir, cfg.Logging.Level),
		root:    root,
		jsonOut: jsonOut,
	}, nil
}

func (a *app) Close() {
	a.events.Close()
}

// newSession builds a session over an HTTP fetcher configured from a.cfg.
func (a *app) newSession() *session.Session {
	fetcher := dataset.NewHTTPFetcher(
		dataset.WithTimeout(a.cfg.Source.Timeout),
		dataset.WithMaxBytes(a.cfg.Source.MaxBytes),
		dataset.WithLogger(a.logger),
	)
	return session.New(fetcher,
		session.WithLayout(a.cfg.Chart.Layout()),
		session.WithLogger(a.logger),
		session.WithEvents(a.events),
	)
}

// source returns the --source flag when given, else the configured URI.
func (a *app) source(cmd *cobra.Command) (string, error) {
	raw := a.cfg.Source.URI
	if s, _ := cmd.Flags().GetString("source"); s != "" {
		raw = s
	}
	return resolveSource(raw)
}

// openDirectory opens and seeds the social directory.
func (a *app) openDirectory(ctx context.Context) (*social.SQLiteDirectory, error) {
	dir, err := social.NewSQLiteDirectory(ctx, a.cfg.Social.DSN,
		social.WithLatency(a.cfg.Social.LoginLatency, a.cfg.Social.FeedLatency),
		social.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("open social directory: %w", err)
	}
	if err := dir.Seed(ctx); err != nil {
		dir.Close()
		return nil, fmt.Errorf("seed social directory: %w", err)
	}
	return dir, nil
}

// resolveSource turns a bare filesystem path into a file:// URI. Anything
// with a scheme is returned unchanged.
func resolveSource(raw string) (string, error) {
	if u, err := url.Parse(raw); err == nil && len(u.Scheme) > 1 {
		return raw, nil
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("resolve source %q: %w", raw, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/chartline/internal/logging"
	"github.com/nvandessel/chartline/internal/ratelimit"
	"github.com/nvandessel/chartline/internal/session"
	"github.com/nvandessel/chartline/internal/social"
)

// Server wraps the MCP SDK server and exposes one chart session plus the
// social directory as tools.
type Server struct {
	server       *sdk.Server
	session      *session.Session
	directory    social.Directory
	root         string
	sourceURI    string
	toolLimiters ratelimit.ToolLimiters
	events       *logging.EventLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name      string // Server name (e.g., "chartline")
	Version   string // Server version
	Root      string // Project root; chart_render may write below it
	SourceURI string // Dataset used when chart_load gets no uri

	Session   *session.Session
	Directory social.Directory

	// Limits overrides the per-tool rate limits. Nil uses the defaults.
	Limits map[string]ratelimit.Limit

	Logger *slog.Logger
	Events *logging.EventLogger
}

// NewServer creates a new MCP server with chartline tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Session == nil {
		return nil, errors.New("mcp server requires a session")
	}
	if cfg.Directory == nil {
		return nil, errors.New("mcp server requires a social directory")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		session:      cfg.Session,
		directory:    cfg.Directory,
		root:         cfg.Root,
		sourceURI:    cfg.SourceURI,
		toolLimiters: ratelimit.NewToolLimiters(cfg.Limits),
		events:       cfg.Events,
		logger:       logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves MCP over stdio until the client disconnects, ctx is cancelled
// or the process receives an interrupt.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer stopSignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.serve(ctx, &sdk.StdioTransport{})
}

// serve runs the MCP server on transport until the session ends. A session
// ended by ctx cancellation is not an error.
func (s *Server) serve(ctx context.Context, transport sdk.Transport) error {
	err := s.server.Run(ctx, transport)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

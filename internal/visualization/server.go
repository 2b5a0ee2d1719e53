package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/models"
)

// MaxPosts caps the count accepted by /api/posts.
const MaxPosts = 1000

// ViewSource produces views and post labels. *session.Session satisfies it.
type ViewSource interface {
	View(option models.FilterOption) (chart.RenderCommands, error)
	Posts(count int) (iter.Seq[string], error)
}

// Server serves the chart page and its JSON API.
type Server struct {
	source     ViewSource
	listenAddr string
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithListenAddr sets the listen address. The default, "localhost:0", lets the OS pick a port.
func WithListenAddr(addr string) ServerOption {
	return func(s *Server) {
		if addr != "" {
			s.listenAddr = addr
		}
	}
}

// WithServerLogger sets the request logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a chart server over src.
func NewServer(src ViewSource, opts ...ServerOption) *Server {
	s := &Server{
		source:     src,
		listenAddr: "localhost:0",
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the page URL, or "" before the server has started.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr + "/"
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/chart.svg", s.handleSVG)
	mux.HandleFunc("/api/view", s.handleView)
	mux.HandleFunc("/api/posts", s.handlePosts)
	return mux
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled.
// A clean shutdown returns nil.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("chart server listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// handleIndex serves the HTML page for ?filter=.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	opt, rc, ok := s.view(w, r)
	if !ok {
		return
	}

	apiBaseURL := ""
	if addr := s.Addr(); addr != "" {
		apiBaseURL = "http://" + addr
	}
	html, err := RenderHTML(rc, opt, apiBaseURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", FormatHTML.ContentType())
	w.Write(html)
}

// handleSVG serves the bare SVG chart for ?filter=.
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	_, rc, ok := s.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", FormatSVG.ContentType())
	w.Write(RenderSVG(rc))
}

// handleView serves the render commands for ?filter= as JSON.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	_, rc, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, RenderJSON(rc))
}

// handlePosts serves ?count= post labels as a JSON array. count defaults to 3.
func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	count := 3
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(w, r, &chart.InvalidArgumentError{Name: "count", Reason: "must be an integer, got " + raw})
			return
		}
		count = n
	}
	if count > MaxPosts {
		s.fail(w, r, &chart.InvalidArgumentError{Name: "count", Reason: fmt.Sprintf("must be at most %d", MaxPosts)})
		return
	}

	seq, err := s.source.Posts(count)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	posts := slices.Collect(seq)
	if posts == nil {
		posts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
}

// view parses ?filter= and renders it, writing an error response on failure.
func (s *Server) view(w http.ResponseWriter, r *http.Request) (models.FilterOption, chart.RenderCommands, bool) {
	opt, err := chart.ParseFilterOption(r.URL.Query().Get("filter"))
	if err != nil {
		s.fail(w, r, err)
		return "", chart.RenderCommands{}, false
	}
	rc, err := s.source.View(opt)
	if err != nil {
		s.fail(w, r, err)
		return "", chart.RenderCommands{}, false
	}
	return opt, rc, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	s.logger.Debug("request failed", "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps an error from the chart pipeline to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chart.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, chart.ErrEmptyDataset):
		return http.StatusConflict
	case errors.Is(err, chart.ErrInvalidData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chart.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

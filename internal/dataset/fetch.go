// Package dataset retrieves chart datasets over HTTP (or from local files)
// and parses them into data points.
package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/models"
)

const (
	// DefaultTimeout bounds a single fetch, including reading the body.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBytes caps the accepted payload size.
	DefaultMaxBytes int64 = 8 << 20
)

var tracer = otel.Tracer("github.com/nvandessel/chartline/internal/dataset")

// Fetcher retrieves a dataset from a URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]models.DataPoint, error)
}

// HTTPFetcher fetches datasets with GET requests. It also reads file:// URIs.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithTimeout sets the client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d, Transport: f.client.Transport}
		}
	}
}

// WithMaxBytes caps the payload size. Non-positive values keep the default.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewHTTPFetcher creates a fetcher with DefaultTimeout and DefaultMaxBytes.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves and parses the dataset at uri. Transport failures, non-2xx
// responses and cancellation produce a *chart.FetchError; malformed payloads
// produce a *chart.InvalidDataError. Nothing is retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]models.DataPoint, error) {
	ctx, span := tracer.Start(ctx, "dataset.Fetch", trace.WithAttributes(attribute.String("dataset.uri", uri)))
	defer span.End()

	start := time.Now()
	points, err := f.fetch(ctx, uri)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.Debug("dataset fetch failed", "uri", uri, "error", err, "duration", time.Since(start))
		return nil, err
	}

	span.SetAttributes(attribute.Int("dataset.points", len(points)))
	f.logger.Debug("dataset fetched", "uri", uri, "points", len(points), "duration", time.Since(start))
	return points, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, uri string) ([]models.DataPoint, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, &chart.FetchError{URI: uri, Err: err}
	}

	var body io.ReadCloser
	switch u.Scheme {
	case "http", "https":
		body, err = f.openHTTP(ctx, uri)
	case "file":
		body, err = openFile(ctx, uri, u)
	default:
		return nil, &chart.FetchError{URI: uri, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, &chart.FetchError{URI: uri, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &chart.InvalidDataError{Index: -1, Reason: fmt.Sprintf("payload exceeds %d bytes", f.maxBytes)}
	}

	return Decode(bytes.NewReader(data))
}

func (f *HTTPFetcher) openHTTP(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &chart.FetchError{URI: uri, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &chart.FetchError{URI: uri, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &chart.FetchError{URI: uri, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return resp.Body, nil
}

func openFile(ctx context.Context, uri string, u *url.URL) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, &chart.FetchError{URI: uri, Err: err}
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, &chart.FetchError{URI: uri, Err: err}
	}
	return file, nil
}

// Package session holds the state of a single visualization session: the
// fetched dataset and the scale domains derived from it.
//
// A session has exactly one write path (a successful dataset load). Everything
// else reads. All public methods are safe for concurrent use.
package session

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/dataset"
	"github.com/nvandessel/chartline/internal/logging"
	"github.com/nvandessel/chartline/internal/models"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load started before it completed.
var ErrSuperseded = errors.New("dataset load superseded by a newer load")

// LoadResult is delivered by LoadDatasetAsync.
type LoadResult struct {
	Points []models.DataPoint
	Err    error
}

// Session owns one dataset and its cached scale domains.
type Session struct {
	mu      sync.RWMutex
	fetcher dataset.Fetcher
	layout  chart.Layout
	logger  *slog.Logger
	events  *logging.EventLogger
	nowFunc func() time.Time

	gen       uint64 // incremented when a load starts
	loaded    bool
	source    string
	loadedAt  time.Time
	points    []models.DataPoint
	xDomain   models.ScaleDomain
	yDomain   models.ScaleDomain
	domainErr error
}

// Option configures a Session.
type Option func(*Session)

// WithLayout sets the layout used by View.
func WithLayout(l chart.Layout) Option {
	return func(s *Session) { s.layout = l }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEvents sets the event logger. A nil EventLogger disables event tracing.
func WithEvents(el *logging.EventLogger) Option {
	return func(s *Session) { s.events = el }
}

// New creates an empty session that loads datasets through f.
func New(f dataset.Fetcher, opts ...Option) *Session {
	s := &Session{
		fetcher: f,
		layout:  chart.DefaultLayout(),
		logger:  slog.New(slog.DiscardHandler),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadDataset fetches uri and, on success, replaces the session's dataset and
// recomputes its domains. On failure the stored dataset is left untouched.
//
// If ctx is done by the time the fetch returns, the result is discarded and a
// *chart.FetchError wrapping ctx.Err() is returned. If another load started in
// the meantime, the result is discarded with ErrSuperseded.
func (s *Session) LoadDataset(ctx context.Context, uri string) ([]models.DataPoint, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.logger.Debug("loading dataset", "uri", uri)

	points, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		s.logger.Warn("dataset load failed", "uri", uri, "error", err)
		s.events.Log("dataset_load_failed", map[string]any{"uri": uri, "error": err.Error()})
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &chart.FetchError{URI: uri, Err: ctxErr}
	}

	x, y, domainErr := chart.ComputeDomains(points)
	if domainErr != nil && !errors.Is(domainErr, chart.ErrEmptyDataset) {
		s.logger.Warn("dataset rejected", "uri", uri, "error", domainErr)
		return nil, domainErr
	}

	stored := make([]models.DataPoint, len(points))
	copy(stored, points)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded dataset load", "uri", uri)
		return nil, ErrSuperseded
	}
	s.loaded = true
	s.source = uri
	s.loadedAt = s.nowFunc()
	s.points = stored
	s.xDomain, s.yDomain, s.domainErr = x, y, domainErr
	s.mu.Unlock()

	s.logger.Info("dataset loaded", "uri", uri, "points", len(stored))
	s.events.Log("dataset_loaded", map[string]any{
		"uri":      uri,
		"points":   len(stored),
		"x_domain": x,
		"y_domain": y,
	})

	return clonePoints(stored), nil
}

// LoadDatasetAsync runs LoadDataset in a goroutine. The returned channel
// receives exactly one result and is then closed.
func (s *Session) LoadDatasetAsync(ctx context.Context, uri string) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		defer close(ch)
		points, err := s.LoadDataset(ctx, uri)
		ch <- LoadResult{Points: points, Err: err}
	}()
	return ch
}

// Loaded reports whether a dataset has been stored.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Source returns the URI of the stored dataset and when it was loaded.
func (s *Session) Source() (string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source, s.loadedAt
}

// Dataset returns a copy of the stored dataset, or ErrEmptyDataset if none is loaded.
func (s *Session) Dataset() ([]models.DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, chart.ErrEmptyDataset
	}
	return clonePoints(s.points), nil
}

// Domains returns the cached domains of the stored dataset.
// It fails with ErrEmptyDataset when nothing (or an empty array) was loaded.
func (s *Session) Domains() (x, y models.ScaleDomain, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return x, y, chart.ErrEmptyDataset
	}
	return s.xDomain, s.yDomain, s.domainErr
}

// snapshot is a consistent view of the stored dataset. Stored slices are
// replaced on load, never mutated, so points may be shared.
type snapshot struct {
	points    []models.DataPoint
	xDomain   models.ScaleDomain
	yDomain   models.ScaleDomain
	domainErr error
	layout    chart.Layout
}

func (s *Session) snapshot() (snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return snapshot{}, chart.ErrEmptyDataset
	}
	return snapshot{
		points:    s.points,
		xDomain:   s.xDomain,
		yDomain:   s.yDomain,
		domainErr: s.domainErr,
		layout:    s.layout,
	}, nil
}

// Filter applies option to the stored dataset.
func (s *Session) Filter(option models.FilterOption) ([]models.DataPoint, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	out, err := chart.ApplyFilter(snap.points, option)
	if err != nil {
		return nil, err
	}
	s.events.Log("filter_applied", map[string]any{"option": string(option), "matched": len(out)})
	return out, nil
}

// View renders the points selected by option against the full dataset's
// domains, so axes stay fixed while the filter changes.
func (s *Session) View(option models.FilterOption) (chart.RenderCommands, error) {
	snap, err := s.snapshot()
	if err != nil {
		return chart.RenderCommands{}, err
	}
	rc, err := snap.view(option)
	if err != nil {
		return chart.RenderCommands{}, err
	}
	s.logger.Log(context.Background(), logging.LevelTrace, "view rendered", "option", option, "commands", len(rc.Commands))
	s.events.Log("view_rendered", map[string]any{"option": string(option), "commands": len(rc.Commands)})
	return rc, nil
}

// Views renders every filter option from the same dataset, in
// models.FilterOptions order.
func (s *Session) Views() ([]chart.OptionView, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	views := make([]chart.OptionView, 0, len(models.FilterOptions))
	for _, opt := range models.FilterOptions {
		rc, err := snap.view(opt)
		if err != nil {
			return nil, err
		}
		views = append(views, chart.OptionView{Option: opt, Commands: rc})
	}
	s.events.Log("views_rendered", map[string]any{"views": len(views)})
	return views, nil
}

func (snap snapshot) view(option models.FilterOption) (chart.RenderCommands, error) {
	if snap.domainErr != nil {
		return chart.RenderCommands{}, snap.domainErr
	}
	points, err := chart.ApplyFilter(snap.points, option)
	if err != nil {
		return chart.RenderCommands{}, err
	}
	return chart.RenderView(points, snap.xDomain, snap.yDomain, snap.layout)
}

// Layout returns the layout used by View.
func (s *Session) Layout() chart.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// Posts returns a lazy "Post 1".."Post count" sequence.
func (s *Session) Posts(count int) (iter.Seq[string], error) {
	return chart.GeneratePosts(count)
}

func clonePoints(points []models.DataPoint) []models.DataPoint {
	out := make([]models.DataPoint, len(points))
	copy(out, points)
	return out
}

package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/chartline/internal/chart"
)

func newPayloadServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_HTTP(t *testing.T) {
	srv := newPayloadServer(t, http.StatusOK, `[{"xValue":0,"yValue":0},{"xValue":10,"yValue":5,"category":"Category B"}]`)

	points, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL+"/data")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[1].Category != "Category B" {
		t.Errorf("category = %q, want Category B", points[1].Category)
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := newPayloadServer(t, http.StatusInternalServerError, `oops`)

	_, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	if !errors.Is(err, chart.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
	var fe *chart.FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusInternalServerError {
		t.Errorf("expected FetchError with status 500, got %#v", err)
	}
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	uri := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(WithTimeout(2*time.Second)).Fetch(context.Background(), uri)
	if !errors.Is(err, chart.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
}

func TestFetch_MalformedPayload(t *testing.T) {
	srv := newPayloadServer(t, http.StatusOK, `{"not":"an array"}`)

	_, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	if !errors.Is(err, chart.ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
	if errors.Is(err, chart.ErrFetch) {
		t.Error("malformed payload must not be classified as a fetch error")
	}
}

func TestFetch_PayloadTooLarge(t *testing.T) {
	body := "[" + strings.Repeat(`{"xValue":1,"yValue":1},`, 100) + `{"xValue":1,"yValue":1}]`
	srv := newPayloadServer(t, http.StatusOK, body)

	_, err := NewHTTPFetcher(WithMaxBytes(64)).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, chart.ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
}

func TestFetch_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewHTTPFetcher().Fetch(ctx, srv.URL)
	if !errors.Is(err, chart.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want wrapped context.Canceled", err)
	}
}

func TestFetch_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`[{"xValue":3,"yValue":4}]`), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	points, err := NewHTTPFetcher().Fetch(context.Background(), "file://"+filepath.ToSlash(path))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(points) != 1 || points[0].XValue != 3 {
		t.Errorf("points = %+v", points)
	}
}

func TestFetch_FileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	_, err := NewHTTPFetcher().Fetch(context.Background(), "file://"+filepath.ToSlash(path))
	if !errors.Is(err, chart.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	_, err := NewHTTPFetcher().Fetch(context.Background(), "ftp://example.com/data")
	if !errors.Is(err, chart.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
}

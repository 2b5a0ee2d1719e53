package visualization

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/models"
)

// fakeSource renders a fixed dataset, or fails with ErrEmptyDataset when empty.
type fakeSource struct {
	points []models.DataPoint
}

func (f *fakeSource) View(option models.FilterOption) (chart.RenderCommands, error) {
	x, y, err := chart.ComputeDomains(f.points)
	if err != nil {
		return chart.RenderCommands{}, err
	}
	filtered, err := chart.ApplyFilter(f.points, option)
	if err != nil {
		return chart.RenderCommands{}, err
	}
	return chart.RenderView(filtered, x, y, chart.DefaultLayout())
}

func (f *fakeSource) Posts(count int) (iter.Seq[string], error) {
	return chart.GeneratePosts(count)
}

var categorized = []models.DataPoint{
	{XValue: 1, YValue: 2, Category: "Category A"},
	{XValue: 4, YValue: 8, Category: "Category B"},
	{XValue: 6, YValue: 3, Category: "Category A"},
}

func newTestServer(t *testing.T, points []models.DataPoint) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(&fakeSource{points: points}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var b bytes.Buffer
	if _, err := b.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b.String()
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t, categorized)

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{"index", "/", http.StatusOK, "text/html; charset=utf-8", `class="filter-select"`},
		{"index filtered", "/?filter=Category+A", http.StatusOK, "text/html; charset=utf-8", `<option value="Category A" selected>`},
		{"svg", "/chart.svg", http.StatusOK, "image/svg+xml", `class="line-chart"`},
		{"view", "/api/view?filter=Category%20B", http.StatusOK, "application/json", `"point_count":1`},
		{"posts", "/api/posts?count=2", http.StatusOK, "application/json", `"posts":["Post 1","Post 2"]`},
		{"posts default", "/api/posts", http.StatusOK, "application/json", `"count":3`},
		{"posts zero", "/api/posts?count=0", http.StatusOK, "application/json", `"posts":[]`},
		{"bad filter", "/api/view?filter=Category%20Z", http.StatusBadRequest, "application/json", `"error"`},
		{"bad filter page", "/?filter=nope", http.StatusBadRequest, "application/json", `"error"`},
		{"bad count", "/api/posts?count=abc", http.StatusBadRequest, "application/json", `"error"`},
		{"negative count", "/api/posts?count=-1", http.StatusBadRequest, "application/json", `"error"`},
		{"count too large", "/api/posts?count=1000000", http.StatusBadRequest, "application/json", `"error"`},
		{"unknown path", "/nope", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantType != "" {
				if ct := resp.Header.Get("Content-Type"); ct != tt.wantType {
					t.Errorf("Content-Type = %q, want %q", ct, tt.wantType)
				}
			}
			if !strings.Contains(body, tt.wantContain) {
				t.Errorf("body missing %s:\n%s", tt.wantContain, body)
			}
		})
	}
}

func TestServer_NoDataset(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/", "/chart.svg", "/api/view"} {
		t.Run(path, func(t *testing.T) {
			resp, _ := get(t, srv.URL+path)
			if resp.StatusCode != http.StatusConflict {
				t.Errorf("status = %d, want 409", resp.StatusCode)
			}
		})
	}

	// Posts do not depend on the dataset.
	resp, _ := get(t, srv.URL+"/api/posts?count=1")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("posts status = %d, want 200", resp.StatusCode)
	}
}

func TestServer_ViewKeepsFullDomains(t *testing.T) {
	srv := newTestServer(t, categorized)

	_, body := get(t, srv.URL+"/api/view?filter=Category%20B")
	var view struct {
		XDomain models.ScaleDomain `json:"x_domain"`
		YDomain models.ScaleDomain `json:"y_domain"`
	}
	if err := json.Unmarshal([]byte(body), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.XDomain.Max != 6 || view.YDomain.Max != 8 {
		t.Errorf("domains = %v %v, want max 6 and 8", view.XDomain, view.YDomain)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&chart.InvalidArgumentError{Name: "filter"}, http.StatusBadRequest},
		{chart.ErrEmptyDataset, http.StatusConflict},
		{&chart.InvalidDataError{Index: 0}, http.StatusUnprocessableEntity},
		{&chart.FetchError{URI: "x"}, http.StatusBadGateway},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServer_ListenAndServe(t *testing.T) {
	srv := NewServer(&fakeSource{points: categorized})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	waitForServer(t, srv, 2*time.Second)

	if !strings.HasPrefix(srv.URL(), "http://127.0.0.1:") && !strings.HasPrefix(srv.URL(), "http://[::1]:") {
		t.Errorf("URL() = %q, want a loopback address", srv.URL())
	}

	resp, body := get(t, srv.URL())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `const apiBase = "http:\/\/`) && !strings.Contains(body, `const apiBase = "http://`) {
		t.Errorf("page does not carry the API base URL")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("unexpected error on shutdown: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down within 3 seconds")
	}
}

func TestServer_URLBeforeStart(t *testing.T) {
	if got := NewServer(&fakeSource{}).URL(); got != "" {
		t.Errorf("URL() = %q before start, want empty", got)
	}
}

// waitForServer polls the server until it's ready or the timeout is reached.
func waitForServer(t *testing.T, srv *Server, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		addr := srv.Addr()
		if addr == "" {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		resp, err := http.Get("http://" + addr + "/api/posts")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start within timeout")
}

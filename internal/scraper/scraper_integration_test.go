package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/rl-brackets/internal/extract"
	"github.com/pfrederiksen/rl-brackets/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, base string, opts ...Option) *Client {
	t.Helper()
	defaults := []Option{
		WithRetryInterval(time.Millisecond),
		WithRequestInterval(0),
		WithMetrics(metrics.NewManager()),
	}
	c, err := New(base, append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int // one per attempt, the last one repeats
		maxRetries   int
		wantError    bool
		wantAttempts int32
		wantStatus   int
	}{
		{
			name:         "successful fetch",
			statuses:     []int{http.StatusOK},
			maxRetries:   3,
			wantAttempts: 1,
		},
		{
			name:         "retries server errors",
			statuses:     []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK},
			maxRetries:   3,
			wantAttempts: 3,
		},
		{
			name:         "retries rate limiting",
			statuses:     []int{http.StatusTooManyRequests, http.StatusOK},
			maxRetries:   3,
			wantAttempts: 2,
		},
		{
			name:         "not found is permanent",
			statuses:     []int{http.StatusNotFound},
			maxRetries:   3,
			wantError:    true,
			wantAttempts: 1,
			wantStatus:   http.StatusNotFound,
		},
		{
			name:         "gives up after max retries",
			statuses:     []int{http.StatusServiceUnavailable},
			maxRetries:   2,
			wantError:    true,
			wantAttempts: 3,
			wantStatus:   http.StatusServiceUnavailable,
		},
		{
			name:         "no retries",
			statuses:     []int{http.StatusInternalServerError, http.StatusOK},
			maxRetries:   0,
			wantError:    true,
			wantAttempts: 1,
			wantStatus:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "rl-brackets") {
					t.Errorf("User-Agent = %q, should contain 'rl-brackets'", userAgent)
				}

				n := int(attempts.Add(1)) - 1
				if n >= len(tt.statuses) {
					n = len(tt.statuses) - 1
				}
				w.WriteHeader(tt.statuses[n])
				w.Write([]byte(`<html><body><h1 id="firstHeading">Page</h1></body></html>`))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, WithMaxRetries(tt.maxRetries))
			doc, err := c.Fetch(context.Background(), "/rocketleague/Page")

			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}

			if tt.wantError {
				if err == nil {
					t.Fatal("Fetch() expected error, got nil")
				}
				var status *StatusError
				if !errors.As(err, &status) {
					t.Fatalf("Fetch() error %v is not a *StatusError", err)
				}
				if status.Code != tt.wantStatus {
					t.Errorf("status code = %d, want %d", status.Code, tt.wantStatus)
				}
				return
			}

			if err != nil {
				t.Fatalf("Fetch() unexpected error: %v", err)
			}
			if name := PageName(doc); name != "Page" {
				t.Errorf("PageName() = %q, want Page", name)
			}
		})
	}
}

func TestFetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	c := newTestClient(t, base, WithMaxRetries(1))
	if _, err := c.Fetch(context.Background(), "/rocketleague/Page"); err == nil {
		t.Error("Fetch() expected error for closed server, got nil")
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, server.URL, WithMaxRetries(5))
	if _, err := c.Fetch(ctx, "/"); err == nil {
		t.Error("Fetch() expected error for canceled context, got nil")
	}
}

func TestFetch_RecordsMetrics(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	m := metrics.NewManager()
	c := newTestClient(t, server.URL, WithMetrics(m))
	if _, err := c.Fetch(context.Background(), "/"); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	series, err := testutil.GatherAndCount(m.Registry(), "rl_brackets_fetch_requests_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error: %v", err)
	}
	if series != 2 {
		t.Errorf("fetch result series = %d, want 2 (ok and error)", series)
	}
}

func TestRequestInterval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	interval := 20 * time.Millisecond
	c := newTestClient(t, server.URL, WithRequestInterval(interval))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), "/"); err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Errorf("3 fetches took %v, want at least %v", elapsed, 2*interval)
	}
}

func TestRequestInterval_HonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithRequestInterval(time.Hour))
	if _, err := c.Fetch(context.Background(), "/"); err != nil {
		t.Fatalf("first Fetch() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := c.Fetch(ctx, "/"); err == nil {
		t.Fatal("second Fetch() error = nil, want throttle to give up with the context")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("second Fetch() took %v, want it bounded by the context", elapsed)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		wantErr bool
	}{
		{"default base", "", false},
		{"absolute", "https://liquipedia.net", false},
		{"relative", "/rocketleague", true},
		{"malformed", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.base)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
			}
		})
	}
}

func TestAbsolute(t *testing.T) {
	c := newTestClient(t, "https://liquipedia.net")

	tests := []struct {
		ref  string
		want string
	}{
		{"/rocketleague/RLCS", "https://liquipedia.net/rocketleague/RLCS"},
		{"/rocketleague/RLCS#Results", "https://liquipedia.net/rocketleague/RLCS"},
		{"https://other.example/x", "https://other.example/x"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := c.Absolute(tt.ref)
			if err != nil {
				t.Fatalf("Absolute() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Absolute(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

var _ extract.LinkResolver = (*Client)(nil)

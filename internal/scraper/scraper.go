package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/rl-brackets/internal/dom"
	"github.com/pfrederiksen/rl-brackets/internal/logger"
	"github.com/pfrederiksen/rl-brackets/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	BaseURL   = "https://liquipedia.net"
	UserAgent = "rl-brackets/1.0 (github.com/pfrederiksen/rl-brackets)"
	Timeout   = 30 * time.Second

	// DefaultMaxRetries is the number of retries after the first failed attempt
	DefaultMaxRetries = 3
	// DefaultRetryInterval is the first backoff delay; later delays grow exponentially
	DefaultRetryInterval = 500 * time.Millisecond
)

// StatusError reports a response with an unexpected status code
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.Code, e.URL)
}

// Retryable reports whether the request may succeed if repeated
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client fetches wiki pages and resolves team links
type Client struct {
	http          *http.Client
	base          *url.URL
	userAgent     string
	maxRetries    int
	retryInterval time.Duration
	interval      time.Duration
	redirects     *RedirectCache
	metrics       *metrics.Manager
	limiter       *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout bounds a single request
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMaxRetries sets how often a failed fetch is retried
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryInterval sets the initial backoff delay
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

// WithRequestInterval spaces requests at least d apart. Zero disables throttling.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.interval = d
		}
	}
}

// WithRedirectCache sets the cache used by ResolveLink
func WithRedirectCache(cache *RedirectCache) Option {
	return func(c *Client) {
		if cache != nil {
			c.redirects = cache
		}
	}
}

// WithMetrics records fetches and redirects on m instead of the default manager
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New creates a Client rooted at baseURL. Relative links are joined to it.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = BaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}

	c := &Client{
		http: &http.Client{
			Timeout: Timeout,
		},
		base:          base,
		userAgent:     UserAgent,
		maxRetries:    DefaultMaxRetries,
		retryInterval: DefaultRetryInterval,
		redirects:     NewRedirectCache(DefaultRedirectTTL),
		metrics:       metrics.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	limit := rate.Inf
	if c.interval > 0 {
		limit = rate.Every(c.interval)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	return c, nil
}

// Absolute joins ref with the base URL and drops any fragment
func (c *Client) Absolute(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", ref, err)
	}
	abs := c.base.ResolveReference(u)
	abs.Fragment = ""
	return abs.String(), nil
}

// Fetch downloads and parses the page at rawURL, retrying transient failures
// with exponential backoff.
func (c *Client) Fetch(ctx context.Context, rawURL string) (dom.Node, error) {
	target, err := c.Absolute(rawURL)
	if err != nil {
		return nil, err
	}

	var doc dom.Node
	attempt := 0
	operation := func() error {
		attempt++
		start := time.Now()
		d, err := c.fetchOnce(ctx, target)
		c.metrics.RecordFetch(err == nil, time.Since(start))
		if err == nil {
			doc = d
			return nil
		}

		var status *StatusError
		if errors.As(err, &status) && !status.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("Fetch failed, retrying", logger.Fields{
			"url":     target,
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	if err := backoff.RetryNotify(operation, c.backOff(ctx), notify); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	return doc, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
}

func (c *Client) fetchOnce(ctx context.Context, target string) (dom.Node, error) {
	resp, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}

	doc, err := dom.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	return resp, nil
}

// wait blocks until the request interval since the previous request has passed
func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// ResolveLink follows redirects from href and returns the final URL. When the
// link cannot be requested, href is returned unchanged.
func (c *Client) ResolveLink(ctx context.Context, href string) string {
	if href == "" {
		return ""
	}

	target, err := c.Absolute(href)
	if err != nil {
		c.metrics.RecordRedirect(false, true)
		return href
	}

	if final, ok := c.redirects.Get(target); ok {
		c.metrics.RecordRedirect(true, false)
		return final
	}

	resp, err := c.get(ctx, target)
	if err != nil {
		c.metrics.RecordRedirect(false, true)
		logger.Debug("Couldn't resolve link", logger.Fields{
			"href":  href,
			"error": err.Error(),
		})
		return href
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	final := resp.Request.URL.String()
	c.redirects.Set(target, final)
	c.metrics.RecordRedirect(false, false)
	return final
}

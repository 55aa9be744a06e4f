// Package metrics provides Prometheus metrics for bracket extraction runs.
//
// rl-brackets is a batch tool, so metrics are not scraped over HTTP. They are
// collected on a private registry and can be written to a node_exporter textfile
// at the end of a run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Popup outcome label values
const (
	OutcomeMatch            = "match"
	OutcomeNotYetPlayed     = "not_yet_played"
	OutcomeExtractionFailed = "extraction_failed"
	OutcomeSkipped          = "skipped"
)

// Manager holds the extraction metrics
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	popups            *prometheus.CounterVec
	teams             prometheus.Counter
	tournaments       prometheus.Counter
	fetches           *prometheus.CounterVec
	fetchDuration     prometheus.Histogram
	redirectCacheHits prometheus.Counter
	redirectFailures  prometheus.Counter
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets the registry metrics are registered on.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

var defaultManager = NewManager() //nolint:gochecknoglobals // process-wide metrics

// NewManager creates a Manager with its own registry unless one is supplied
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "rl_brackets",
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)

	m.popups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "popups_total",
		Help:      "Bracket popups processed, by outcome",
	}, []string{"outcome"})

	m.teams = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "teams_total",
		Help:      "Teams extracted from team cards",
	})

	m.tournaments = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "tournaments_total",
		Help:      "Tournament pages assembled",
	})

	m.fetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "fetch_requests_total",
		Help:      "HTTP page fetches, by result",
	}, []string{"result"})

	m.fetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of page fetches including retries",
		Buckets:   prometheus.DefBuckets,
	})

	m.redirectCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "redirect_cache_hits_total",
		Help:      "Team link resolutions served from cache",
	})

	m.redirectFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "redirect_failures_total",
		Help:      "Team link resolutions that fell back to the unresolved link",
	})

	return m
}

// Registry returns the registry backing the manager
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordPopup counts one popup outcome
func (m *Manager) RecordPopup(outcome string) {
	m.popups.WithLabelValues(outcome).Inc()
}

// RecordTeams counts extracted teams
func (m *Manager) RecordTeams(n int) {
	m.teams.Add(float64(n))
}

// RecordTournament counts one assembled tournament
func (m *Manager) RecordTournament() {
	m.tournaments.Inc()
}

// RecordFetch counts a fetch and observes its duration
func (m *Manager) RecordFetch(ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// RecordRedirect counts a link resolution served from cache or a failed one
func (m *Manager) RecordRedirect(cacheHit, failed bool) {
	if cacheHit {
		m.redirectCacheHits.Inc()
	}
	if failed {
		m.redirectFailures.Inc()
	}
}

// WriteTextfile writes all metrics in the Prometheus text format to path
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Default returns the process-wide manager
func Default() *Manager {
	return defaultManager
}

// RecordPopup counts a popup outcome on the default manager
func RecordPopup(outcome string) {
	defaultManager.RecordPopup(outcome)
}

// RecordTeams counts extracted teams on the default manager
func RecordTeams(n int) {
	defaultManager.RecordTeams(n)
}

// RecordTournament counts an assembled tournament on the default manager
func RecordTournament() {
	defaultManager.RecordTournament()
}

// RecordFetch records a fetch on the default manager
func RecordFetch(ok bool, d time.Duration) {
	defaultManager.RecordFetch(ok, d)
}

// RecordRedirect records a link resolution on the default manager
func RecordRedirect(cacheHit, failed bool) {
	defaultManager.RecordRedirect(cacheHit, failed)
}

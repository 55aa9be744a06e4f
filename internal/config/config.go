// Package config defines rl-brackets configuration and how it is loaded.
//
// Values are layered, lowest precedence first: built-in defaults, an optional
// YAML file, a .env file in the working directory, and RLB_-prefixed environment
// variables. Command-line flags are applied on top by the cli package.
package config

import (
	"fmt"
	"time"
)

// CutoffLayout is the format of the cutoff_date setting
const CutoffLayout = "2006-01-02"

// Config contains process configuration
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL is the wiki root relative team and tournament links are joined to.
	BaseURL string `koanf:"base_url"`

	// UserAgent is sent with every request.
	UserAgent string `koanf:"user_agent"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries is the number of retries after a failed fetch.
	MaxRetries int `koanf:"max_retries"`

	// RequestInterval is the minimum spacing between requests to the wiki.
	RequestInterval time.Duration `koanf:"request_interval"`

	// CutoffDate separates not-yet-played popups from malformed ones (YYYY-MM-DD).
	CutoffDate string `koanf:"cutoff_date"`

	// LANLabel is the infobox label whose value is compared to "Offline".
	LANLabel string `koanf:"lan_label"`

	// Concurrency caps the tournament pages processed in parallel.
	Concurrency int `koanf:"concurrency"`

	// RedirectCacheTTL is how long resolved team links are reused.
	RedirectCacheTTL time.Duration `koanf:"redirect_cache_ttl"`

	// DataDir holds JSON snapshots.
	DataDir string `koanf:"data_dir"`

	// DBPath enables the SQLite store when set.
	DBPath string `koanf:"db_path"`

	// MetricsFile receives a Prometheus textfile at the end of a run when set.
	MetricsFile string `koanf:"metrics_file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		BaseURL:          "https://liquipedia.net",
		UserAgent:        "rl-brackets/1.0 (github.com/pfrederiksen/rl-brackets)",
		Timeout:          30 * time.Second,
		MaxRetries:       3,
		RequestInterval:  2 * time.Second,
		CutoffDate:       "2019-05-30",
		LANLabel:         "Type:",
		Concurrency:      2,
		RedirectCacheTTL: 24 * time.Hour,
		DataDir:          "~/.local/share/rl-brackets",
	}
}

// Cutoff returns the parsed cutoff date. Validate must have succeeded.
func (c *Config) Cutoff() time.Time {
	t, _ := time.Parse(CutoffLayout, c.CutoffDate)
	return t
}

// Validate checks settings that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if _, err := time.Parse(CutoffLayout, c.CutoffDate); err != nil {
		return fmt.Errorf("cutoff_date %q: want YYYY-MM-DD: %w", c.CutoffDate, err)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

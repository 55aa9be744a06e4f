package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestManager_RecordPopup(t *testing.T) {
	m := NewManager()

	m.RecordPopup(OutcomeMatch)
	m.RecordPopup(OutcomeMatch)
	m.RecordPopup(OutcomeNotYetPlayed)

	if got := testutil.ToFloat64(m.popups.WithLabelValues(OutcomeMatch)); got != 2 {
		t.Errorf("popups{match} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.popups.WithLabelValues(OutcomeNotYetPlayed)); got != 1 {
		t.Errorf("popups{not_yet_played} = %v, want 1", got)
	}
}

func TestManager_Counters(t *testing.T) {
	m := NewManager(WithNamespace("test"))

	m.RecordTeams(8)
	m.RecordTournament()
	m.RecordFetch(true, 120*time.Millisecond)
	m.RecordFetch(false, time.Second)
	m.RecordRedirect(true, false)
	m.RecordRedirect(false, true)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"teams", testutil.ToFloat64(m.teams), 8},
		{"tournaments", testutil.ToFloat64(m.tournaments), 1},
		{"fetch ok", testutil.ToFloat64(m.fetches.WithLabelValues("ok")), 1},
		{"fetch error", testutil.ToFloat64(m.fetches.WithLabelValues("error")), 1},
		{"cache hits", testutil.ToFloat64(m.redirectCacheHits), 1},
		{"redirect failures", testutil.ToFloat64(m.redirectFailures), 1},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestManager_WriteTextfile(t *testing.T) {
	m := NewManager()
	m.RecordPopup(OutcomeExtractionFailed)

	path := filepath.Join(t.TempDir(), "rl.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `rl_brackets_popups_total{outcome="extraction_failed"} 1`) {
		t.Errorf("textfile missing popup counter:\n%s", data)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	// Package-level helpers must not panic
	RecordPopup(OutcomeSkipped)
	RecordTeams(1)
	RecordTournament()
	RecordFetch(true, time.Millisecond)
	RecordRedirect(false, false)

	if Default().Registry() == nil {
		t.Error("Default().Registry() returned nil")
	}
}

package bracket

import (
	"sort"
	"time"
)

// Snapshot represents the matches of one tournament at a point in time
type Snapshot struct {
	Tournament string           `json:"tournament"`
	URL        string           `json:"url,omitempty"`
	Matches    map[string]Match `json:"matches"`    // keyed by MatchKeys
	UpdatedAt  string           `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Matches: make(map[string]Match),
	}
}

// CreateSnapshot creates a snapshot from a tournament
func CreateSnapshot(t Tournament, updatedAt time.Time) *Snapshot {
	snap := NewSnapshot()
	snap.Tournament = t.Name
	snap.URL = t.URL
	snap.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)

	for i, key := range MatchKeys(t.Matches) {
		snap.Matches[key] = t.Matches[i]
	}

	return snap
}

// DiffResult contains the results of comparing a tournament against a snapshot
type DiffResult struct {
	NewMatches []Match
	// Changed holds matches seen before whose game count grew
	Changed []Match
}

// Diff compares the current tournament against a previous snapshot
func Diff(previous *Snapshot, current Tournament) *DiffResult {
	result := &DiffResult{
		NewMatches: make([]Match, 0),
		Changed:    make([]Match, 0),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for i, key := range MatchKeys(current.Matches) {
		m := current.Matches[i]
		old, exists := previous.Matches[key]
		if !exists {
			result.NewMatches = append(result.NewMatches, m)
			continue
		}
		if len(m.Games) > len(old.Games) {
			result.Changed = append(result.Changed, m)
		}
	}

	sortMatches(result.NewMatches)
	sortMatches(result.Changed)

	return result
}

// sortMatches orders matches by date, then by key for stable output
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].Date.Equal(matches[j].Date) {
			return matches[i].Date.Before(matches[j].Date)
		}
		return matches[i].Key() < matches[j].Key()
	})
}

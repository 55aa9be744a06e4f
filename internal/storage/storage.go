package storage

import (
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
)

// ErrNotFound is returned when no stored tournament exists for a key
var ErrNotFound = errors.New("tournament not found")

// Storage handles persistence of tournament snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	for _, dir := range []string{dataDir, filepath.Join(dataDir, "snapshots"), filepath.Join(dataDir, "tournaments")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// Key identifies a tournament on disk: its URL when known, otherwise its name
func Key(t bracket.Tournament) string {
	if t.URL != "" {
		return t.URL
	}
	return t.Name
}

// Slug turns a tournament key into a file name: a readable part built from the
// key (URLs keep only their path) and a short hash of the whole key, so keys
// that read alike such as "/A/B" and "/A_B" get different files.
func Slug(key string) string {
	sum := sha1.Sum([]byte(key))
	return readable(key) + "_" + fmt.Sprintf("%x", sum[:4])
}

func readable(key string) string {
	if u, err := url.Parse(key); err == nil && u.Host != "" {
		key = u.Path
	}

	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "_")
	if slug == "" {
		return "unnamed"
	}
	return slug
}

// getSnapshotPath returns the path to the snapshot file
func (s *Storage) getSnapshotPath(key string) string {
	return filepath.Join(s.dataDir, "snapshots", Slug(key)+".json")
}

func (s *Storage) getTournamentPath(key string) string {
	return filepath.Join(s.dataDir, "tournaments", Slug(key)+".json")
}

// LoadSnapshot loads the snapshot for a tournament key. A missing file yields
// an empty snapshot.
func (s *Storage) LoadSnapshot(key string) (*bracket.Snapshot, error) {
	data, err := os.ReadFile(s.getSnapshotPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			// No previous snapshot, return empty one
			return bracket.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot bracket.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	// Ensure Matches map is initialized
	if snapshot.Matches == nil {
		snapshot.Matches = make(map[string]bracket.Match)
	}

	return &snapshot, nil
}

// SaveSnapshot saves a snapshot under key
func (s *Storage) SaveSnapshot(snapshot *bracket.Snapshot, key string) error {
	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return writeJSON(s.getSnapshotPath(key), snapshot, "snapshot")
}

// CreateSnapshotFromTournament creates and saves a snapshot of a tournament's matches
func (s *Storage) CreateSnapshotFromTournament(t bracket.Tournament) error {
	snapshot := bracket.CreateSnapshot(t, time.Now())
	return s.SaveSnapshot(snapshot, Key(t))
}

// SaveTournament stores the full tournament
func (s *Storage) SaveTournament(t bracket.Tournament) error {
	return writeJSON(s.getTournamentPath(Key(t)), t, "tournament")
}

// LoadTournament reads a tournament stored under key
func (s *Storage) LoadTournament(key string) (bracket.Tournament, error) {
	data, err := os.ReadFile(s.getTournamentPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return bracket.Tournament{}, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return bracket.Tournament{}, fmt.Errorf("reading tournament: %w", err)
	}

	var t bracket.Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return bracket.Tournament{}, fmt.Errorf("parsing tournament: %w", err)
	}
	return t, nil
}

// writeJSON writes v to a temporary file and renames it over path
func writeJSON(path string, v any, what string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", what, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", what, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing %s: %w", what, err)
	}
	return nil
}

package bracket

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Side is the bracket position of a team within a match popup
type Side int

const (
	Left Side = iota
	Right
)

// String returns "left" or "right"
func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Opposite returns the other side
func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

// MaxPlayers is the number of starters kept per team
const MaxPlayers = 3

// Team is a tournament participant
type Team struct {
	Name    string   `json:"name"`
	ID      string   `json:"id"` // canonical team page URL
	Players []string `json:"players"`
}

// Equal reports whether t and other are the same team. Only the id is compared.
func (t Team) Equal(other Team) bool {
	return t.ID == other.ID
}

// Game is the score of one game, keyed by team id
type Game struct {
	Scores map[string]int `json:"scores"`
}

// NewGame creates a game with one score per side
func NewGame(left, right Team, leftScore, rightScore int) Game {
	return Game{
		Scores: map[string]int{
			left.ID:  leftScore,
			right.ID: rightScore,
		},
	}
}

// Score returns the score t achieved in the game
func (g Game) Score(t Team) (int, bool) {
	s, ok := g.Scores[t.ID]
	return s, ok
}

// Winner returns the team with the higher score. ok is false on a draw or
// when the game does not belong to the given teams.
func (g Game) Winner(teams [2]Team) (Team, bool) {
	a, okA := g.Score(teams[0])
	b, okB := g.Score(teams[1])
	if !okA || !okB || a == b {
		return Team{}, false
	}
	if a > b {
		return teams[0], true
	}
	return teams[1], true
}

// Match is one played bracket match
type Match struct {
	Date  time.Time `json:"date"`
	Teams [2]Team   `json:"teams"`
	Games []Game    `json:"games"`
}

var (
	ErrGameTeams     = errors.New("game teams do not match the match teams")
	ErrUnknownTeam   = errors.New("match references a team missing from the tournament")
	ErrDuplicateTeam = errors.New("team listed twice")
)

// Validate checks that every game scores exactly the two match teams
func (m Match) Validate() error {
	for i, g := range m.Games {
		if len(g.Scores) != 2 {
			return fmt.Errorf("game %d: %w", i+1, ErrGameTeams)
		}
		for _, t := range m.Teams {
			if _, ok := g.Score(t); !ok {
				return fmt.Errorf("game %d: %w", i+1, ErrGameTeams)
			}
		}
	}
	return nil
}

// Key returns a deterministic identifier for the match built from its date
// and participants. Two popups for the same pairing on the same day share a
// Key; use MatchKeys to tell them apart.
func (m Match) Key() string {
	ids := []string{strings.ToLower(m.Teams[0].ID), strings.ToLower(m.Teams[1].ID)}
	h := sha1.New()
	h.Write([]byte(m.Date.Format("2006-01-02") + "|" + ids[0] + "|" + ids[1]))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// MatchKeys returns one unique key per match, in order. The first match with a
// given Key keeps it; later ones, such as a grand final replaying the upper
// final on the same day, get the occurrence appended ("<key>-2", "<key>-3").
func MatchKeys(matches []Match) []string {
	seen := make(map[string]int, len(matches))
	keys := make([]string, len(matches))
	for i, m := range matches {
		key := m.Key()
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s-%d", key, n)
		}
		keys[i] = key
	}
	return keys
}

// Series returns the number of games each team won, in Teams order
func (m Match) Series() (int, int) {
	var a, b int
	for _, g := range m.Games {
		w, ok := g.Winner(m.Teams)
		if !ok {
			continue
		}
		if w.Equal(m.Teams[0]) {
			a++
		} else {
			b++
		}
	}
	return a, b
}

// Tournament is one bracket page with its roster and played matches
type Tournament struct {
	Name    string  `json:"name"`
	URL     string  `json:"url,omitempty"`
	LAN     bool    `json:"lan"`
	Teams   []Team  `json:"teams"`
	Matches []Match `json:"matches"`
}

// Team returns the roster entry with the given id
func (t Tournament) Team(id string) (Team, bool) {
	for _, team := range t.Teams {
		if team.ID == id {
			return team, true
		}
	}
	return Team{}, false
}

// Validate checks that teams are unique and every match references roster teams
func (t Tournament) Validate() error {
	seen := make(map[string]bool, len(t.Teams))
	for _, team := range t.Teams {
		if seen[team.ID] {
			return fmt.Errorf("%s: %w", team.ID, ErrDuplicateTeam)
		}
		seen[team.ID] = true
	}

	for i, m := range t.Matches {
		for _, team := range m.Teams {
			if !seen[team.ID] {
				return fmt.Errorf("match %d (%s): %w", i+1, team.ID, ErrUnknownTeam)
			}
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("match %d: %w", i+1, err)
		}
	}
	return nil
}

// Event groups the tournaments reachable from one event page
type Event struct {
	Name        string       `json:"name"`
	URL         string       `json:"url,omitempty"`
	Premier     bool         `json:"premier"`
	Tournaments []Tournament `json:"tournaments"`
}

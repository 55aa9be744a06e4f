package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/extract"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt     time.Time          `json:"checked_at"`
	NewOnly       bool               `json:"new_only,omitempty"`
	Events        []EventOutput      `json:"events,omitempty"`
	Tournaments   []TournamentOutput `json:"tournaments"`
	MatchCount    int                `json:"match_count"`
	NewMatchCount int                `json:"new_match_count"`
}

// EventOutput describes an event without repeating its tournaments
type EventOutput struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Premier     bool   `json:"premier"`
	Tournaments int    `json:"tournaments"`
}

// TournamentOutput is one extracted tournament. Matches holds every match or,
// with --new-only, the matches missing from the previous snapshot.
// UpdatedMatches counts stored matches that gained games since the last run.
type TournamentOutput struct {
	Name           string             `json:"name"`
	URL            string             `json:"url,omitempty"`
	LAN            bool               `json:"lan"`
	Teams          []bracket.Team     `json:"teams"`
	Matches        []bracket.Match    `json:"matches"`
	NewMatches     int                `json:"new_matches"`
	UpdatedMatches int                `json:"updated_matches"`
	Report         *extract.Report    `json:"report,omitempty"`
	Diagnostics    []DiagnosticOutput `json:"diagnostics,omitempty"`
}

// DiagnosticOutput is a popup that yielded no match
type DiagnosticOutput struct {
	Outcome string   `json:"outcome"`
	Date    string   `json:"date,omitempty"`
	Left    string   `json:"left,omitempty"`
	Right   string   `json:"right,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func summarizeEvents(events []bracket.Event) []EventOutput {
	out := make([]EventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, EventOutput{
			Name:        e.Name,
			URL:         e.URL,
			Premier:     e.Premier,
			Tournaments: len(e.Tournaments),
		})
	}
	return out
}

func summarizeDiagnostics(report *extract.Report) []DiagnosticOutput {
	if report == nil {
		return nil
	}
	out := make([]DiagnosticOutput, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		do := DiagnosticOutput{
			Outcome: d.Outcome.String(),
			Left:    d.LeftName,
			Right:   d.RightName,
			Missing: d.Missing,
		}
		if !d.Date.IsZero() {
			do.Date = d.Date.Format("2006-01-02")
		}
		out = append(out, do)
	}
	return out
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	matchLabel := "matches"
	if result.NewOnly {
		matchLabel = "new matches"
	}

	for _, e := range result.Events {
		premier := ""
		if e.Premier {
			premier = " [premier]"
		}
		fmt.Fprintf(w, "Event: %s%s (%d tournaments)\n", e.Name, premier, e.Tournaments)
	}

	if len(result.Tournaments) == 0 {
		fmt.Fprintln(w, "No tournaments found.")
		return nil
	}

	for _, t := range result.Tournaments {
		kind := "online"
		if t.LAN {
			kind = "LAN"
		}
		updated := ""
		if t.UpdatedMatches > 0 {
			updated = fmt.Sprintf(", %d updated", t.UpdatedMatches)
		}
		fmt.Fprintf(w, "\n%s (%s, %d teams, %d %s%s)\n", t.Name, kind, len(t.Teams), len(t.Matches), matchLabel, updated)

		if verbose {
			for _, team := range t.Teams {
				fmt.Fprintf(w, "  TEAM: %s [%s]\n", team.Name, strings.Join(team.Players, ", "))
			}
		}

		for _, m := range t.Matches {
			fmt.Fprintf(w, "  %s\n", formatMatch(m))
		}

		if verbose && t.Report != nil {
			fmt.Fprintf(w, "  Popups: %d, placeholders: %d, not yet played: %d, failed: %d, skipped team cards: %d\n",
				t.Report.Popups, t.Report.Placeholders, t.Report.NotYetPlayed(), t.Report.Failed(), t.Report.SkippedCards)
			for _, d := range t.Diagnostics {
				fmt.Fprintf(w, "  %s: %q vs %q %s (missing %s)\n",
					strings.ToUpper(d.Outcome), d.Left, d.Right, d.Date, strings.Join(d.Missing, ", "))
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d %s across %d tournaments\n", result.MatchCount, matchLabel, len(result.Tournaments))
	return nil
}

// formatMatch renders "2019-03-02  Renault Vitality 2-0 Dignitas (3-1, 2-0)"
func formatMatch(m bracket.Match) string {
	a, b := m.Series()
	line := fmt.Sprintf("%s  %s %d-%d %s", m.Date.Format("2006-01-02"), m.Teams[0].Name, a, b, m.Teams[1].Name)
	if len(m.Games) == 0 {
		return line
	}

	games := make([]string, 0, len(m.Games))
	for _, g := range m.Games {
		left, _ := g.Score(m.Teams[0])
		right, _ := g.Score(m.Teams[1])
		games = append(games, fmt.Sprintf("%d-%d", left, right))
	}
	return line + " (" + strings.Join(games, ", ") + ")"
}

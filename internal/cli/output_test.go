package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/extract"
)

var (
	vitality = bracket.Team{Name: "Renault Vitality", ID: "https://liquipedia.net/rocketleague/Renault_Vitality", Players: []string{"Fairy Peak!", "Kaydop", "Alpha54"}}
	dignitas = bracket.Team{Name: "Dignitas", ID: "https://liquipedia.net/rocketleague/Team_Dignitas", Players: []string{"Turbopolsa"}}
	g2       = bracket.Team{Name: "G2 Esports", ID: "https://liquipedia.net/rocketleague/G2_Esports", Players: []string{}}
)

func day(d int) time.Time {
	return time.Date(2019, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestFormatMatch(t *testing.T) {
	played := bracket.Match{
		Date:  day(2),
		Teams: [2]bracket.Team{vitality, dignitas},
		Games: []bracket.Game{
			bracket.NewGame(vitality, dignitas, 3, 1),
			bracket.NewGame(vitality, dignitas, 2, 0),
		},
	}
	if got, want := formatMatch(played), "2019-03-02  Renault Vitality 2-0 Dignitas (3-1, 2-0)"; got != want {
		t.Errorf("formatMatch() = %q, want %q", got, want)
	}

	noGames := bracket.Match{Date: day(9), Teams: [2]bracket.Team{g2, dignitas}}
	if got, want := formatMatch(noGames), "2019-03-09  G2 Esports 0-0 Dignitas"; got != want {
		t.Errorf("formatMatch() = %q, want %q", got, want)
	}
}

func TestWriteText(t *testing.T) {
	result := &OutputResult{
		Events: []EventOutput{{Name: "RLCS Season 7", Premier: true, Tournaments: 1}},
		Tournaments: []TournamentOutput{{
			Name:  "RLCS Season 7 - Europe",
			LAN:   true,
			Teams: []bracket.Team{vitality, dignitas},
			Matches: []bracket.Match{{
				Date:  day(2),
				Teams: [2]bracket.Team{vitality, dignitas},
				Games: []bracket.Game{bracket.NewGame(vitality, dignitas, 3, 1)},
			}},
			Report: &extract.Report{Popups: 2, Matches: 1, Diagnostics: []*extract.Diagnostic{{Outcome: extract.ExtractionFailed}}},
			Diagnostics: []DiagnosticOutput{
				{Outcome: "extraction_failed", Left: "Unknown Squad", Right: "Dignitas", Date: "2019-01-20", Missing: []string{"left team"}},
			},
		}},
		MatchCount: 1,
	}

	tests := []struct {
		name    string
		verbose bool
		newOnly bool
		want    []string
		notWant []string
	}{
		{
			name: "plain",
			want: []string{
				"Event: RLCS Season 7 [premier] (1 tournaments)",
				"RLCS Season 7 - Europe (LAN, 2 teams, 1 matches)",
				"  2019-03-02  Renault Vitality 1-0 Dignitas (3-1)",
				"Total: 1 matches across 1 tournaments",
			},
			notWant: []string{"TEAM:", "EXTRACTION_FAILED"},
		},
		{
			name:    "verbose",
			verbose: true,
			want: []string{
				"  TEAM: Renault Vitality [Fairy Peak!, Kaydop, Alpha54]",
				"  Popups: 2, placeholders: 0, not yet played: 0, failed: 1, skipped team cards: 0",
				`  EXTRACTION_FAILED: "Unknown Squad" vs "Dignitas" 2019-01-20 (missing left team)`,
			},
		},
		{
			name:    "new only",
			newOnly: true,
			want: []string{
				"(LAN, 2 teams, 1 new matches)",
				"Total: 1 new matches across 1 tournaments",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := *result
			r.NewOnly = tt.newOnly

			var buf bytes.Buffer
			if err := WriteOutput(&buf, &r, FormatText, tt.verbose); err != nil {
				t.Fatalf("WriteOutput() error: %v", err)
			}
			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output unexpectedly contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestWriteText_UpdatedMatches(t *testing.T) {
	result := &OutputResult{Tournaments: []TournamentOutput{{Name: "RLCS", UpdatedMatches: 2}}}

	var buf bytes.Buffer
	if err := WriteOutput(&buf, result, FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error: %v", err)
	}
	if want := "RLCS (online, 0 teams, 0 matches, 2 updated)"; !strings.Contains(buf.String(), want) {
		t.Errorf("output missing %q:\n%s", want, buf.String())
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{}, FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error: %v", err)
	}
	if got := buf.String(); got != "No tournaments found.\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	if err := WriteOutput(&bytes.Buffer{}, &OutputResult{}, OutputFormat("xml"), false); err == nil {
		t.Error("WriteOutput() error = nil, want error for unknown format")
	}
}

func TestSummarizeDiagnostics(t *testing.T) {
	if got := summarizeDiagnostics(nil); got != nil {
		t.Errorf("summarizeDiagnostics(nil) = %v, want nil", got)
	}

	report := &extract.Report{Diagnostics: []*extract.Diagnostic{
		{Outcome: extract.NotYetPlayed, Date: time.Date(2019, 6, 9, 0, 0, 0, 0, time.UTC), LeftName: "Dignitas", RightName: "G2 Esports"},
		{Outcome: extract.ExtractionFailed, LeftName: "Unknown Squad", Missing: []string{"date"}},
	}}
	want := []DiagnosticOutput{
		{Outcome: "not_yet_played", Date: "2019-06-09", Left: "Dignitas", Right: "G2 Esports"},
		{Outcome: "extraction_failed", Left: "Unknown Squad", Missing: []string{"date"}},
	}
	if diff := cmp.Diff(want, summarizeDiagnostics(report)); diff != "" {
		t.Errorf("summarizeDiagnostics() mismatch (-want +got):\n%s", diff)
	}
}

package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/database"
	"github.com/pfrederiksen/rl-brackets/internal/extract"
)

var (
	vitality = bracket.Team{Name: "Renault Vitality", ID: "https://liquipedia.net/rocketleague/Renault_Vitality", Players: []string{"Fairy Peak!", "Kaydop", "Alpha54"}}
	dignitas = bracket.Team{Name: "Dignitas", ID: "https://liquipedia.net/rocketleague/Team_Dignitas", Players: []string{"Turbopolsa"}}
	g2       = bracket.Team{Name: "G2 Esports", ID: "https://liquipedia.net/rocketleague/G2_Esports", Players: []string{}}
)

func sampleTournament() bracket.Tournament {
	return bracket.Tournament{
		Name:  "RLCS Season 7 - Europe",
		URL:   "https://liquipedia.net/rocketleague/RLCS/Season_7/Europe",
		LAN:   true,
		Teams: []bracket.Team{vitality, dignitas, g2},
		Matches: []bracket.Match{
			{
				Date:  time.Date(2019, 3, 2, 0, 0, 0, 0, time.UTC),
				Teams: [2]bracket.Team{vitality, dignitas},
				Games: []bracket.Game{
					bracket.NewGame(vitality, dignitas, 3, 1),
					bracket.NewGame(vitality, dignitas, 0, 2),
					bracket.NewGame(vitality, dignitas, 4, 3),
				},
			},
			{
				Date:  time.Date(2019, 2, 9, 0, 0, 0, 0, time.UTC),
				Teams: [2]bracket.Team{g2, vitality},
				Games: []bracket.Game{},
			},
		},
	}
}

func newTestRepository(t *testing.T) *TournamentRepository {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTournamentRepository(db)
}

func TestSaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	want := sampleTournament()

	runID, err := repo.Save(ctx, want, &extract.Report{Tournament: want.Name, Popups: 3, Matches: 2, Placeholders: 1})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("run id %q is not a UUID: %v", runID, err)
	}

	got, err := repo.Get(ctx, want.URL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("loaded tournament Validate() error: %v", err)
	}
}

func TestSave_ReplacesPreviousRoster(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := sampleTournament()
	if _, err := repo.Save(ctx, first, nil); err != nil {
		t.Fatalf("first Save() error: %v", err)
	}

	second := sampleTournament()
	second.Teams = second.Teams[:2]
	second.Matches = second.Matches[:1]
	second.LAN = false
	if _, err := repo.Save(ctx, second, nil); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}

	got, err := repo.Get(ctx, second.URL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got.Teams) != 2 || len(got.Matches) != 1 || got.LAN {
		t.Errorf("got %d teams, %d matches, lan %v; want 2, 1, false", len(got.Teams), len(got.Matches), got.LAN)
	}

	summaries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("List() = %d tournaments, want 1", len(summaries))
	}
	if summaries[0].Teams != 2 || summaries[0].Matches != 1 {
		t.Errorf("summary = %+v, want 2 teams and 1 match", summaries[0])
	}
}

func TestRuns(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	clock := time.Date(2019, 3, 2, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	tournament := sampleTournament()
	report := &extract.Report{
		Tournament:   tournament.Name,
		Popups:       5,
		Matches:      2,
		Placeholders: 1,
		SkippedCards: 1,
		Diagnostics: []*extract.Diagnostic{
			{Outcome: extract.NotYetPlayed},
			{Outcome: extract.ExtractionFailed},
			{Outcome: extract.ExtractionFailed},
		},
	}

	firstID, err := repo.Save(ctx, tournament, report)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	clock = clock.Add(time.Hour)
	secondID, err := repo.Save(ctx, tournament, nil)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	runs, err := repo.Runs(ctx, tournament.URL)
	if err != nil {
		t.Fatalf("Runs() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs() = %d, want 2", len(runs))
	}
	if runs[0].ID != secondID || runs[1].ID != firstID {
		t.Errorf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}

	want := Run{
		ID:           firstID,
		StartedAt:    time.Date(2019, 3, 2, 12, 0, 0, 0, time.UTC),
		Popups:       5,
		Matches:      2,
		Placeholders: 1,
		NotYetPlayed: 1,
		Failed:       2,
		SkippedCards: 1,
	}
	if diff := cmp.Diff(want, runs[1]); diff != "" {
		t.Errorf("first run mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	if _, err := repo.Get(context.Background(), "https://liquipedia.net/rocketleague/Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSave_KeyFallsBackToName(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tournament := sampleTournament()
	tournament.URL = ""
	if _, err := repo.Save(ctx, tournament, nil); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := repo.Get(ctx, tournament.Name); err != nil {
		t.Errorf("Get(name) error: %v", err)
	}
}

package bracket

import (
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	day1 := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	played := Match{Date: day1, Teams: [2]Team{teamA, teamB}, Games: []Game{NewGame(teamA, teamB, 1, 0)}}
	later := Match{Date: day2, Teams: [2]Team{teamB, teamC}}
	earlier := Match{Date: day1, Teams: [2]Team{teamA, teamC}}

	previous := CreateSnapshot(Tournament{Name: "RLCS", Matches: []Match{played}}, time.Now())

	grown := played
	grown.Games = append([]Game{}, played.Games...)
	grown.Games = append(grown.Games, NewGame(teamA, teamB, 2, 3))

	tests := []struct {
		name        string
		previous    *Snapshot
		current     Tournament
		wantNew     int
		wantChanged int
		firstNew    *Match
	}{
		{
			name:     "nil snapshot reports all matches",
			previous: nil,
			current:  Tournament{Matches: []Match{played, later}},
			wantNew:  2,
		},
		{
			name:     "seen matches are skipped",
			previous: previous,
			current:  Tournament{Matches: []Match{played, later, earlier}},
			wantNew:  2,
			firstNew: &earlier,
		},
		{
			name:        "more games reported as changed",
			previous:    previous,
			current:     Tournament{Matches: []Match{grown}},
			wantNew:     0,
			wantChanged: 1,
		},
		{
			name:     "nothing new",
			previous: previous,
			current:  Tournament{Matches: []Match{played}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := Diff(tt.previous, tt.current)

			if len(diff.NewMatches) != tt.wantNew {
				t.Errorf("NewMatches = %d, want %d", len(diff.NewMatches), tt.wantNew)
			}
			if len(diff.Changed) != tt.wantChanged {
				t.Errorf("Changed = %d, want %d", len(diff.Changed), tt.wantChanged)
			}
			if tt.firstNew != nil && len(diff.NewMatches) > 0 && diff.NewMatches[0].Key() != tt.firstNew.Key() {
				t.Error("NewMatches not sorted by date")
			}
		})
	}
}

func TestDiff_SameDayRematch(t *testing.T) {
	date := time.Date(2019, 3, 2, 0, 0, 0, 0, time.UTC)
	upperFinal := Match{Date: date, Teams: [2]Team{teamA, teamB}, Games: []Game{NewGame(teamA, teamB, 3, 1)}}
	grandFinal := Match{Date: date, Teams: [2]Team{teamA, teamB}, Games: []Game{NewGame(teamA, teamB, 0, 3)}}

	previous := CreateSnapshot(Tournament{Matches: []Match{upperFinal}}, time.Now())
	current := Tournament{Matches: []Match{upperFinal, grandFinal}}

	diff := Diff(previous, current)
	if len(diff.NewMatches) != 1 {
		t.Fatalf("NewMatches = %d, want 1 (grand final)", len(diff.NewMatches))
	}
	if got, _ := diff.NewMatches[0].Games[0].Score(teamB); got != 3 {
		t.Errorf("new match is not the grand final: %+v", diff.NewMatches[0])
	}

	if snap := CreateSnapshot(current, time.Now()); len(snap.Matches) != 2 {
		t.Errorf("snapshot holds %d matches, want 2", len(snap.Matches))
	}
	if again := Diff(CreateSnapshot(current, time.Now()), current); len(again.NewMatches) != 0 {
		t.Errorf("rerun NewMatches = %d, want 0", len(again.NewMatches))
	}
}

func TestCreateSnapshot(t *testing.T) {
	m := Match{Date: time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), Teams: [2]Team{teamA, teamB}}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	snap := CreateSnapshot(Tournament{Name: "RLCS", URL: "https://x", Matches: []Match{m}}, at)

	if snap.Tournament != "RLCS" || snap.URL != "https://x" {
		t.Errorf("snapshot header = %q %q", snap.Tournament, snap.URL)
	}
	if snap.UpdatedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("UpdatedAt = %q", snap.UpdatedAt)
	}
	if _, ok := snap.Matches[m.Key()]; !ok {
		t.Error("snapshot missing match by key")
	}
}

// Package repository stores assembled tournaments in SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/extract"
	"github.com/pfrederiksen/rl-brackets/internal/storage"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned when no tournament is stored under a key
var ErrNotFound = errors.New("tournament not found")

// Run is one recorded extraction of a tournament page
type Run struct {
	ID           string
	StartedAt    time.Time
	Popups       int
	Matches      int
	Placeholders int
	NotYetPlayed int
	Failed       int
	SkippedCards int
}

// Summary describes a stored tournament without its matches
type Summary struct {
	Key       string
	Name      string
	URL       string
	LAN       bool
	Teams     int
	Matches   int
	UpdatedAt time.Time
}

type TournamentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTournamentRepository(db *sql.DB) *TournamentRepository {
	return &TournamentRepository{
		db:  db,
		now: time.Now,
	}
}

// Save replaces the stored roster and matches of t and records an extraction
// run from report. It returns the run id.
func (r *TournamentRepository) Save(ctx context.Context, t bracket.Tournament, report *extract.Report) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now().UTC()
	key := storage.Key(t)

	var tournamentID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tournaments (page_key, name, url, lan, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (page_key) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			lan = excluded.lan,
			updated_at = excluded.updated_at
		RETURNING id`,
		key, t.Name, t.URL, t.LAN, now,
	).Scan(&tournamentID)
	if err != nil {
		return "", fmt.Errorf("upserting tournament %s: %w", key, err)
	}

	// players and games go with their parent rows
	if _, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE tournament_id = ?`, tournamentID); err != nil {
		return "", fmt.Errorf("clearing teams: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = ?`, tournamentID); err != nil {
		return "", fmt.Errorf("clearing matches: %w", err)
	}

	if err := insertTeams(ctx, tx, tournamentID, t.Teams); err != nil {
		return "", err
	}
	if err := insertMatches(ctx, tx, tournamentID, t.Matches); err != nil {
		return "", err
	}

	if report == nil {
		report = &extract.Report{Tournament: t.Name, Matches: len(t.Matches)}
	}
	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO extraction_runs
			(id, tournament_id, started_at, popups, matches, placeholders, not_yet_played, failed, skipped_cards)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, tournamentID, now, report.Popups, report.Matches, report.Placeholders,
		report.NotYetPlayed(), report.Failed(), report.SkippedCards,
	)
	if err != nil {
		return "", fmt.Errorf("recording extraction run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	return runID, nil
}

func insertTeams(ctx context.Context, tx *sql.Tx, tournamentID int64, teams []bracket.Team) error {
	for i, team := range teams {
		var teamRow int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO teams (tournament_id, position, team_id, name) VALUES (?, ?, ?, ?) RETURNING id`,
			tournamentID, i, team.ID, team.Name,
		).Scan(&teamRow)
		if err != nil {
			return fmt.Errorf("inserting team %s: %w", team.ID, err)
		}

		for seat, player := range team.Players {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO players (team_row, seat, name) VALUES (?, ?, ?)`,
				teamRow, seat+1, player,
			)
			if err != nil {
				return fmt.Errorf("inserting player %s of %s: %w", player, team.ID, err)
			}
		}
	}
	return nil
}

func insertMatches(ctx context.Context, tx *sql.Tx, tournamentID int64, matches []bracket.Match) error {
	keys := bracket.MatchKeys(matches)
	for i, m := range matches {
		var matchRow int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO matches (tournament_id, position, match_key, played_on, left_team, right_team)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			tournamentID, i, keys[i], m.Date.Format(dateLayout), m.Teams[0].ID, m.Teams[1].ID,
		).Scan(&matchRow)
		if err != nil {
			return fmt.Errorf("inserting match %d: %w", i+1, err)
		}

		for n, g := range m.Games {
			left, _ := g.Score(m.Teams[0])
			right, _ := g.Score(m.Teams[1])
			_, err := tx.ExecContext(ctx,
				`INSERT INTO games (match_id, number, left_score, right_score) VALUES (?, ?, ?, ?)`,
				matchRow, n+1, left, right,
			)
			if err != nil {
				return fmt.Errorf("inserting game %d of match %d: %w", n+1, i+1, err)
			}
		}
	}
	return nil
}

// Get loads the tournament stored under key
func (r *TournamentRepository) Get(ctx context.Context, key string) (bracket.Tournament, error) {
	var (
		id int64
		t  bracket.Tournament
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, url, lan FROM tournaments WHERE page_key = ?`, key,
	).Scan(&id, &t.Name, &t.URL, &t.LAN)
	if errors.Is(err, sql.ErrNoRows) {
		return bracket.Tournament{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return bracket.Tournament{}, fmt.Errorf("loading tournament %s: %w", key, err)
	}

	teams, err := r.teams(ctx, id)
	if err != nil {
		return bracket.Tournament{}, err
	}
	t.Teams = teams

	matches, err := r.matches(ctx, id, teams)
	if err != nil {
		return bracket.Tournament{}, err
	}
	t.Matches = matches

	return t, nil
}

func (r *TournamentRepository) teams(ctx context.Context, tournamentID int64) ([]bracket.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.team_id, t.name, p.name
		FROM teams t
		LEFT JOIN players p ON p.team_row = t.id
		WHERE t.tournament_id = ?
		ORDER BY t.position, p.seat`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}
	defer rows.Close()

	teams := make([]bracket.Team, 0)
	lastRow := int64(-1)
	for rows.Next() {
		var (
			teamRow int64
			team    bracket.Team
			player  sql.NullString
		)
		if err := rows.Scan(&teamRow, &team.ID, &team.Name, &player); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		if teamRow != lastRow {
			team.Players = make([]string, 0, bracket.MaxPlayers)
			teams = append(teams, team)
			lastRow = teamRow
		}
		if player.Valid {
			last := &teams[len(teams)-1]
			last.Players = append(last.Players, player.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}
	return teams, nil
}

func (r *TournamentRepository) matches(ctx context.Context, tournamentID int64, roster []bracket.Team) ([]bracket.Match, error) {
	byID := make(map[string]bracket.Team, len(roster))
	for _, team := range roster {
		byID[team.ID] = team
	}
	lookup := func(id string) bracket.Team {
		if team, ok := byID[id]; ok {
			return team
		}
		return bracket.Team{ID: id, Players: []string{}}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.played_on, m.left_team, m.right_team, g.left_score, g.right_score
		FROM matches m
		LEFT JOIN games g ON g.match_id = m.id
		WHERE m.tournament_id = ?
		ORDER BY m.position, g.number`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("loading matches: %w", err)
	}
	defer rows.Close()

	matches := make([]bracket.Match, 0)
	lastRow := int64(-1)
	for rows.Next() {
		var (
			matchRow              int64
			playedOn              string
			leftID, rightID       string
			leftScore, rightScore sql.NullInt64
		)
		if err := rows.Scan(&matchRow, &playedOn, &leftID, &rightID, &leftScore, &rightScore); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}

		if matchRow != lastRow {
			date, err := time.Parse(dateLayout, playedOn)
			if err != nil {
				return nil, fmt.Errorf("parsing match date %q: %w", playedOn, err)
			}
			matches = append(matches, bracket.Match{
				Date:  date,
				Teams: [2]bracket.Team{lookup(leftID), lookup(rightID)},
				Games: make([]bracket.Game, 0),
			})
			lastRow = matchRow
		}

		if leftScore.Valid && rightScore.Valid {
			m := &matches[len(matches)-1]
			m.Games = append(m.Games, bracket.NewGame(m.Teams[0], m.Teams[1], int(leftScore.Int64), int(rightScore.Int64)))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading matches: %w", err)
	}
	return matches, nil
}

// List returns every stored tournament, most recently updated first
func (r *TournamentRepository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.page_key, t.name, t.url, t.lan, t.updated_at,
			(SELECT COUNT(*) FROM teams WHERE tournament_id = t.id),
			(SELECT COUNT(*) FROM matches WHERE tournament_id = t.id)
		FROM tournaments t
		ORDER BY t.updated_at DESC, t.page_key`)
	if err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Key, &s.Name, &s.URL, &s.LAN, &s.UpdatedAt, &s.Teams, &s.Matches); err != nil {
			return nil, fmt.Errorf("scanning tournament: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	return summaries, nil
}

// Runs returns the recorded extraction runs of a tournament, newest first
func (r *TournamentRepository) Runs(ctx context.Context, key string) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.popups, r.matches, r.placeholders, r.not_yet_played, r.failed, r.skipped_cards
		FROM extraction_runs r
		JOIN tournaments t ON t.id = r.tournament_id
		WHERE t.page_key = ?
		ORDER BY r.started_at DESC, r.rowid DESC`, key)
	if err != nil {
		return nil, fmt.Errorf("loading runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var run Run
		err := rows.Scan(&run.ID, &run.StartedAt, &run.Popups, &run.Matches, &run.Placeholders,
			&run.NotYetPlayed, &run.Failed, &run.SkippedCards)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading runs: %w", err)
	}
	return runs, nil
}

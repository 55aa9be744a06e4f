package extract

import (
	"context"
	"strings"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/dom"
)

var (
	isTeamCard      = dom.ByClass("teamcard")
	isTeamCardInner = dom.ByClass("teamcard-inner")
	isRosterTable   = dom.ByClass("table")
)

// ExtractTeams builds the roster from the page's team cards. Cards without a team
// link are skipped and counted in the second return value. Teams are deduplicated
// by id, keeping the first card.
func (e *Extractor) ExtractTeams(ctx context.Context, doc dom.Node) ([]bracket.Team, int) {
	teams := make([]bracket.Team, 0)
	if doc == nil {
		return teams, 0
	}

	seen := make(map[string]bool)
	skipped := 0

	for card := range doc.Find(isTeamCard) {
		team, ok := e.readTeamCard(ctx, card)
		if !ok {
			skipped++
			continue
		}
		key := strings.ToLower(team.ID)
		if seen[key] {
			continue
		}
		seen[key] = true
		teams = append(teams, team)
	}

	return teams, skipped
}

// readTeamCard extracts one team card
func (e *Extractor) readTeamCard(ctx context.Context, card dom.Node) (bracket.Team, bool) {
	link, ok := dom.Path(card, dom.ByTag("center"), dom.ByTag("b"), dom.ByTag("a"))
	if !ok {
		return bracket.Team{}, false
	}
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return bracket.Team{}, false
	}

	return bracket.Team{
		Name:    dom.TrimmedText(link),
		ID:      e.links.ResolveLink(ctx, href),
		Players: starters(card),
	}, true
}

// starters reads up to MaxPlayers player names from the card's roster table.
// Rows whose seat cell is not a number of at most MaxPlayers belong to
// substitutes and coaches.
func starters(card dom.Node) []string {
	players := make([]string, 0, bracket.MaxPlayers)

	table, ok := dom.Path(card, isTeamCardInner, isRosterTable)
	if !ok {
		return players
	}

	for row := range table.Find(dom.ByTag("tr")) {
		if len(players) == bracket.MaxPlayers {
			break
		}
		seatCell, ok := dom.FindFirst(row, dom.ByTag("th"))
		if !ok {
			continue
		}
		seat, ok := parseSeat(seatCell.Text())
		if !ok || seat > bracket.MaxPlayers {
			continue
		}
		if name, ok := playerName(row); ok {
			players = append(players, name)
		}
	}

	return players
}

// playerName returns the text of the row's first anchor that does not wrap an
// image. Image anchors are flag and substitute markers.
func playerName(row dom.Node) (string, bool) {
	for a := range row.Find(dom.ByTag("a")) {
		if wrapsImage(a) {
			continue
		}
		if name := dom.TrimmedText(a); name != "" {
			return name, true
		}
	}
	return "", false
}

func wrapsImage(a dom.Node) bool {
	for child := range a.Children() {
		if child.Tag() == "img" {
			return true
		}
	}
	return false
}

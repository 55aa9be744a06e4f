package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByPage SortOrder = "page"
	SortByDate SortOrder = "date"
	SortByTeam SortOrder = "team"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByPage, SortByDate, SortByTeam:
		return order, nil
	case "":
		return SortByPage, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'page', 'date' or 'team')", s)
	}
}

// sortMatches sorts matches in place. SortByPage keeps document order.
func sortMatches(matches []bracket.Match, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Date.Before(matches[j].Date)
		})
	case SortByTeam:
		sort.SliceStable(matches, func(i, j int) bool {
			a, b := teamKey(matches[i]), teamKey(matches[j])
			if a != b {
				return a < b
			}
			// If teams are equal, sort by date
			return matches[i].Date.Before(matches[j].Date)
		})
	}
}

// teamKey orders a match by its alphabetically first team name
func teamKey(m bracket.Match) string {
	left := strings.ToLower(m.Teams[0].Name)
	right := strings.ToLower(m.Teams[1].Name)
	if right < left {
		return right + "|" + left
	}
	return left + "|" + right
}

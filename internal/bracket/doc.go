// Package bracket provides the tournament result model recovered from bracket pages.
//
// Teams are identified by their canonical id (the redirect-resolved team page URL),
// never by display name, because the same team is linked with different anchor text
// in different parts of a page. Matches pair two teams with an ordered list of games,
// each game holding exactly one score per team. Snapshots of previously seen matches
// support reporting only the matches added since the last run.
package bracket

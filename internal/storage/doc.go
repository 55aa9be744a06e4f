// Package storage provides JSON-based persistence for tournaments and their
// match snapshots.
//
// Each tournament is keyed by its page URL (or name when parsed offline) and
// stored as tournaments/<slug>.json. Snapshots of the matches seen on the last
// run live in snapshots/<slug>.json and drive "new matches only" reporting.
// The default location is ~/.local/share/rl-brackets/.
package storage

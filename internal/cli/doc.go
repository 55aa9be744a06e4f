// Package cli implements the command-line interface for rl-brackets.
//
// The cli package provides the Cobra-based commands tournament, event, list and
// parse. It loads configuration, wires the scraper and extractor, compares each
// tournament against its stored snapshot, persists results as JSON and
// optionally SQLite, and writes text or JSON output. With --new-only the exit
// code is 2 when matches not seen on the previous run were found.
package cli

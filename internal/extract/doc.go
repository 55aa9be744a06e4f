// Package extract recovers teams and matches from Liquipedia bracket markup.
//
// A tournament page carries two independent surfaces: team cards listing each
// participant with its roster, and bracket popups describing one scheduled or played
// match each. The Extractor builds the roster from the team cards, then turns every
// popup into a bracket.Match by resolving both sides against the roster and pairing
// the per-game score indicators left to right.
//
// Popups that cannot produce a match are classified rather than treated as errors.
// A popup with a recovered date after the configured cutoff is NotYetPlayed, since
// future matches have no teams or scores yet; anything else is ExtractionFailed.
// Both are returned as *Diagnostic values and collected in the assembly Report.
//
// The package performs no I/O of its own. Team links are turned into canonical ids by
// the injected LinkResolver, which may hit the network.
package extract

package extract

import (
	"context"
	"errors"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/dom"
	"github.com/pfrederiksen/rl-brackets/internal/logger"
	"github.com/pfrederiksen/rl-brackets/internal/metrics"
)

// OfflineValue is the infobox value of a LAN tournament
const OfflineValue = "Offline"

var isInfoboxDescription = dom.ByClass("infobox-description")

// Report summarizes one assembly run
type Report struct {
	Tournament   string        `json:"tournament"`
	Popups       int           `json:"popups"`
	Matches      int           `json:"matches"`
	Placeholders int           `json:"placeholders"`  // popups without header
	SkippedCards int           `json:"skipped_cards"` // team cards without link
	Diagnostics  []*Diagnostic `json:"-"`
}

// NotYetPlayed returns the number of popups dated after the cutoff without a match
func (r *Report) NotYetPlayed() int {
	return r.count(NotYetPlayed)
}

// Failed returns the number of popups that could not be extracted
func (r *Report) Failed() int {
	return r.count(ExtractionFailed)
}

func (r *Report) count(o Outcome) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Outcome == o {
			n++
		}
	}
	return n
}

// Assemble extracts a tournament from a parsed page. lanLabel names the infobox
// cell checked for "Offline"; empty uses the extractor's label. A bad popup or
// team card never fails the whole page: it is left out and recorded in the report.
func (e *Extractor) Assemble(ctx context.Context, doc dom.Node, name, lanLabel string) (bracket.Tournament, *Report) {
	if lanLabel == "" {
		lanLabel = e.lanLabel
	}

	report := &Report{Tournament: name}
	teams, skipped := e.ExtractTeams(ctx, doc)
	report.SkippedCards = skipped
	e.metrics.RecordTeams(len(teams))

	if skipped > 0 {
		logger.Warn("Skipped team cards without link", logger.Fields{
			"tournament": name,
			"count":      skipped,
		})
	}

	matches := make([]bracket.Match, 0)
	if doc != nil {
		for popup := range doc.Find(isPopup) {
			report.Popups++
			m, err := e.ExtractMatch(ctx, popup, teams)
			if err != nil {
				e.recordFailure(name, report, err)
				continue
			}
			matches = append(matches, m)
			e.metrics.RecordPopup(metrics.OutcomeMatch)
		}
	}
	report.Matches = len(matches)
	e.metrics.RecordTournament()

	return bracket.Tournament{
		Name:    name,
		LAN:     IsLAN(doc, lanLabel),
		Teams:   teams,
		Matches: matches,
	}, report
}

// recordFailure files a popup error in the report and logs it
func (e *Extractor) recordFailure(tournament string, report *Report, err error) {
	if errors.Is(err, ErrNoHeader) {
		report.Placeholders++
		e.metrics.RecordPopup(metrics.OutcomeSkipped)
		return
	}

	var diag *Diagnostic
	if !errors.As(err, &diag) {
		return
	}
	report.Diagnostics = append(report.Diagnostics, diag)
	e.metrics.RecordPopup(diag.Outcome.String())

	fields := logger.Fields{
		"tournament": tournament,
		"left":       diag.LeftName,
		"right":      diag.RightName,
		"missing":    diag.Missing,
	}
	if !diag.Date.IsZero() {
		fields["date"] = diag.Date.Format("2006-01-02")
	}

	if diag.Outcome == NotYetPlayed {
		logger.Debug("Match hasn't happened yet", fields)
		return
	}
	logger.Warn("Couldn't extract match", fields)
}

// IsLAN reports whether the infobox cell labelled label reads exactly "Offline"
func IsLAN(doc dom.Node, label string) bool {
	if doc == nil {
		return false
	}
	for cell := range doc.Find(isInfoboxDescription) {
		if dom.TrimmedText(cell) != label {
			continue
		}
		value, ok := cell.NextSibling()
		if !ok {
			return false
		}
		return dom.TrimmedText(value) == OfflineValue
	}
	return false
}

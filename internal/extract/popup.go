package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/dom"
	"github.com/pfrederiksen/rl-brackets/internal/metrics"
)

var (
	// ErrNoHeader marks a structural placeholder popup. It is skipped, not reported.
	ErrNoHeader = errors.New("popup has no header")
	// ErrNotYetPlayed marks a popup for a match scheduled after the cutoff
	ErrNotYetPlayed = errors.New("match not yet played")
	// ErrExtractionFailed marks a popup with missing or unresolvable data
	ErrExtractionFailed = errors.New("match extraction failed")
)

// DefaultCutoff separates future matches from malformed ones. Popups dated after
// it are allowed to lack teams.
var DefaultCutoff = time.Date(2019, time.May, 30, 0, 0, 0, 0, time.UTC)

// DefaultLANLabel is the infobox label whose value tells online from offline events
const DefaultLANLabel = "Type:"

// Outcome classifies a popup that produced no match
type Outcome int

const (
	NotYetPlayed Outcome = iota
	ExtractionFailed
)

// String returns the metrics label of the outcome
func (o Outcome) String() string {
	if o == NotYetPlayed {
		return metrics.OutcomeNotYetPlayed
	}
	return metrics.OutcomeExtractionFailed
}

// Diagnostic describes a popup that produced no match
type Diagnostic struct {
	Outcome   Outcome
	Date      time.Time // zero when no date was recovered
	LeftName  string
	RightName string
	LeftID    string
	RightID   string
	Missing   []string
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Unwrap().Error())
	if !d.Date.IsZero() {
		fmt.Fprintf(&b, " (%s)", d.Date.Format("2006-01-02"))
	}
	if d.LeftName != "" || d.RightName != "" {
		fmt.Fprintf(&b, ": %q vs %q", d.LeftName, d.RightName)
	}
	if len(d.Missing) > 0 {
		fmt.Fprintf(&b, ", missing %s", strings.Join(d.Missing, ", "))
	}
	return b.String()
}

// Unwrap returns ErrNotYetPlayed or ErrExtractionFailed
func (d *Diagnostic) Unwrap() error {
	if d.Outcome == NotYetPlayed {
		return ErrNotYetPlayed
	}
	return ErrExtractionFailed
}

var (
	isPopup       = dom.ByClass("bracket-popup")
	isHeader      = dom.ByClass("bracket-popup-header")
	isHeaderLeft  = dom.ByClass("bracket-popup-header-left")
	isHeaderRight = dom.ByClass("bracket-popup-header-right")
	isBody        = dom.ByClass("bracket-popup-body")
	isBodyTime    = dom.ByClass("bracket-popup-body-time")
	isTimer       = dom.And(dom.ByTag("span"), dom.ByClass("timer-object"))
	isTeamText    = dom.ByClass("team-template-text")
	isStyledDiv   = dom.And(dom.ByTag("div"), dom.ByAttr("style"))
)

// Option configures an Extractor
type Option func(*Extractor)

// WithCutoff sets the date after which incomplete popups count as not yet played
func WithCutoff(cutoff time.Time) Option {
	return func(e *Extractor) {
		if !cutoff.IsZero() {
			e.cutoff = cutoff
		}
	}
}

// WithLinkResolver sets how team links become canonical ids
func WithLinkResolver(r LinkResolver) Option {
	return func(e *Extractor) {
		if r != nil {
			e.links = r
		}
	}
}

// WithLANLabel sets the infobox label checked for "Offline"
func WithLANLabel(label string) Option {
	return func(e *Extractor) {
		if label != "" {
			e.lanLabel = label
		}
	}
}

// WithMetrics sets the metrics manager outcomes are counted on
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Extractor) {
		if m != nil {
			e.metrics = m
		}
	}
}

// Extractor turns bracket markup into tournament results. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	cutoff   time.Time
	links    LinkResolver
	lanLabel string
	metrics  *metrics.Manager
}

// New creates an Extractor. Without options links are used verbatim as ids.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		cutoff:   DefaultCutoff,
		links:    BaseURLResolver{},
		lanLabel: DefaultLANLabel,
		metrics:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cutoff returns the configured cutoff date
func (e *Extractor) Cutoff() time.Time {
	return e.cutoff
}

// sideInfo is what one popup header side says about its team
type sideInfo struct {
	name string
	id   string
}

// readSide extracts the display name and canonical id of a header side
func (e *Extractor) readSide(ctx context.Context, side dom.Node) sideInfo {
	var info sideInfo

	span, ok := dom.FindFirst(side, dom.ByTag("span"))
	if !ok {
		return info
	}
	info.name, _ = span.Attr("data-highlightingclass")

	a, ok := dom.Path(span, isTeamText, dom.ByTag("a"))
	if !ok {
		return info
	}
	if href, ok := a.Attr("href"); ok && href != "" {
		info.id = e.links.ResolveLink(ctx, href)
	}
	return info
}

// popupDate reads the match date from the body's timer
func popupDate(body dom.Node) (time.Time, bool) {
	timer, ok := dom.Path(body, isBodyTime, isTimer)
	if !ok {
		return time.Time{}, false
	}
	return parseTimerDate(timer.Text())
}

// indicators collects the per-game score indicators of a popup body in markup order
func indicators(body dom.Node) []Indicator {
	if body == nil {
		return nil
	}
	var out []Indicator
	for div := range body.Find(isStyledDiv) {
		style, _ := div.Attr("style")
		side, ok := placement(style)
		if !ok {
			continue
		}
		score, ok := parseScore(div.Text())
		if !ok {
			continue
		}
		out = append(out, Indicator{Score: score, Side: side})
	}
	return out
}

// ExtractMatch turns one bracket popup into a match. It returns ErrNoHeader for
// placeholder popups and a *Diagnostic when the popup lacks the data for a match.
func (e *Extractor) ExtractMatch(ctx context.Context, popup dom.Node, roster []bracket.Team) (bracket.Match, error) {
	header, ok := dom.FindFirst(popup, isHeader)
	if !ok {
		return bracket.Match{}, ErrNoHeader
	}

	leftNode, _ := dom.FindFirst(header, isHeaderLeft)
	rightNode, _ := dom.FindFirst(header, isHeaderRight)
	left := e.readSide(ctx, leftNode)
	right := e.readSide(ctx, rightNode)

	leftTeam, leftOK := ResolveTeam(left.id, left.name, roster)
	rightTeam, rightOK := ResolveTeam(right.id, right.name, roster)

	body, _ := dom.FindFirst(popup, isBody)
	date, dateOK := popupDate(body)

	var missing []string
	if left.name == "" {
		missing = append(missing, "left name")
	}
	if right.name == "" {
		missing = append(missing, "right name")
	}
	if !leftOK {
		missing = append(missing, "left team")
	}
	if !rightOK {
		missing = append(missing, "right team")
	}
	if leftOK && rightOK && leftTeam.Equal(rightTeam) {
		missing = append(missing, "distinct teams")
	}
	if !dateOK {
		missing = append(missing, "date")
	}

	if len(missing) > 0 {
		diag := &Diagnostic{
			Outcome:   ExtractionFailed,
			LeftName:  left.name,
			RightName: right.name,
			LeftID:    left.id,
			RightID:   right.id,
			Missing:   missing,
		}
		if dateOK {
			diag.Date = date
			if date.After(e.cutoff) {
				diag.Outcome = NotYetPlayed
			}
		}
		return bracket.Match{}, diag
	}

	return bracket.Match{
		Date:  date,
		Teams: [2]bracket.Team{leftTeam, rightTeam},
		Games: PairScores(leftTeam, rightTeam, indicators(body)),
	}, nil
}

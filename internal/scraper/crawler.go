package scraper

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/extract"
	"github.com/pfrederiksen/rl-brackets/internal/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages a Crawler processes at once
const DefaultConcurrency = 2

// TournamentResult pairs an assembled tournament with its extraction report
type TournamentResult struct {
	Tournament bracket.Tournament
	Report     *extract.Report
}

// Crawler turns tournament, event and listing pages into bracket values
type Crawler struct {
	client      *Client
	extractor   *extract.Extractor
	concurrency int
}

// NewCrawler creates a Crawler. concurrency below 1 uses DefaultConcurrency.
func NewCrawler(client *Client, extractor *extract.Extractor, concurrency int) *Crawler {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Crawler{
		client:      client,
		extractor:   extractor,
		concurrency: concurrency,
	}
}

// Tournament fetches and assembles a single tournament page
func (c *Crawler) Tournament(ctx context.Context, pageURL string) (bracket.Tournament, *extract.Report, error) {
	target, err := c.client.Absolute(pageURL)
	if err != nil {
		return bracket.Tournament{}, nil, err
	}

	doc, err := c.client.Fetch(ctx, target)
	if err != nil {
		return bracket.Tournament{}, nil, err
	}

	t, report := c.extractor.Assemble(ctx, doc, PageName(doc), "")
	t.URL = target

	logger.Info("Assembled tournament", logger.Fields{
		"tournament":     t.Name,
		"url":            target,
		"teams":          len(t.Teams),
		"matches":        report.Matches,
		"not_yet_played": report.NotYetPlayed(),
		"failed":         report.Failed(),
	})
	return t, report, nil
}

// tab is a tournament page discovered through event navigation
type tab struct {
	url    string
	result TournamentResult
	links  []string
	err    error
}

// Event assembles the event page and every tournament reachable through its
// navigation tabs. Each page is visited once. A failing tab is logged and left
// out; only a failure of the event page itself is returned.
func (c *Crawler) Event(ctx context.Context, eventURL string, premier bool) (bracket.Event, []TournamentResult, error) {
	root, err := c.client.Absolute(eventURL)
	if err != nil {
		return bracket.Event{}, nil, err
	}

	event := bracket.Event{
		URL:         root,
		Premier:     premier,
		Tournaments: make([]bracket.Tournament, 0),
	}
	results := make([]TournamentResult, 0)

	visited := map[string]bool{root: true}
	level := []string{root}

	for len(level) > 0 {
		tabs := make([]tab, len(level))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)
		for i, u := range level {
			g.Go(func() error {
				tabs[i] = c.visitTab(gctx, u)
				if u == root && tabs[i].err != nil {
					return fmt.Errorf("assembling event page: %w", tabs[i].err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return bracket.Event{}, nil, err
		}

		next := make([]string, 0)
		for _, t := range tabs {
			if t.err != nil {
				continue
			}
			if t.url == root {
				event.Name = t.result.Tournament.Name
			}
			event.Tournaments = append(event.Tournaments, t.result.Tournament)
			results = append(results, t.result)

			for _, href := range t.links {
				abs, err := c.client.Absolute(href)
				if err != nil || visited[abs] {
					continue
				}
				visited[abs] = true
				next = append(next, abs)
			}
		}
		level = next
	}

	return event, results, nil
}

func (c *Crawler) visitTab(ctx context.Context, pageURL string) tab {
	doc, err := c.client.Fetch(ctx, pageURL)
	if err != nil {
		logger.Error("Couldn't fetch tournament page", logger.Fields{"url": pageURL}, err)
		return tab{url: pageURL, err: err}
	}

	t, report := c.extractor.Assemble(ctx, doc, PageName(doc), "")
	t.URL = pageURL
	return tab{
		url:    pageURL,
		result: TournamentResult{Tournament: t, Report: report},
		links:  tabLinks(doc),
	}
}

// EventResult is one event of a listing crawl
type EventResult struct {
	Event   bracket.Event
	Results []TournamentResult
}

// Listing crawls every tournament linked from a listing page as an event.
// Events that fail are logged and skipped; the rest keep listing order.
func (c *Crawler) Listing(ctx context.Context, listingURL string, premier bool) ([]EventResult, error) {
	if removed := c.client.redirects.CleanExpired(); removed > 0 {
		logger.Debug("Dropped expired redirects", logger.Fields{"count": removed})
	}

	urls, err := c.client.ListTournaments(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	logger.Info("Found tournaments in listing", logger.Fields{
		"url":   listingURL,
		"count": len(urls),
	})

	found := make([]*EventResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			event, results, err := c.Event(gctx, u, premier)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Error("Couldn't crawl event", logger.Fields{"url": u}, err)
				return nil
			}
			found[i] = &EventResult{Event: event, Results: results}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]EventResult, 0, len(urls))
	for _, e := range found {
		if e != nil {
			events = append(events, *e)
		}
	}
	return events, nil
}

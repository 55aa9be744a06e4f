package scraper

import (
	"context"

	"github.com/pfrederiksen/rl-brackets/internal/dom"
)

var (
	firstHeading = dom.MustSelector("h1#firstHeading")
	pageTitle    = dom.ByTag("title")
	navTabLink   = dom.MustSelector(".tabs-static .nav-tabs li a[href]")

	isDivTable   = dom.ByClass("divTable")
	isDivRow     = dom.ByClass("divRow")
	isHeaderCell = dom.And(dom.ByClass("divCell"), dom.ByClass("Tournament"), dom.ByClass("Header"))
)

// PageName returns the wiki page heading, falling back to the document title
func PageName(doc dom.Node) string {
	if h, ok := dom.FindFirst(doc, firstHeading); ok {
		if name := dom.TrimmedText(h); name != "" {
			return name
		}
	}
	if t, ok := dom.FindFirst(doc, pageTitle); ok {
		return dom.TrimmedText(t)
	}
	return ""
}

// tournamentLinks returns the href of the first linked header cell of every
// row in every listing table, in document order
func tournamentLinks(doc dom.Node) []string {
	links := make([]string, 0)
	if doc == nil {
		return links
	}

	for table := range doc.Find(isDivTable) {
		for row := range table.Find(isDivRow) {
			a, ok := dom.Path(row, isHeaderCell, dom.ByTag("b"), dom.ByTag("a"))
			if !ok {
				continue
			}
			if href, ok := a.Attr("href"); ok && href != "" {
				links = append(links, href)
			}
		}
	}
	return links
}

// tabLinks returns the hrefs of the event navigation tabs on a page
func tabLinks(doc dom.Node) []string {
	links := make([]string, 0)
	if doc == nil {
		return links
	}

	for a := range doc.Find(navTabLink) {
		if href, ok := a.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	}
	return links
}

// ListTournaments fetches a listing page and returns the absolute URL of every
// tournament it links
func (c *Client) ListTournaments(ctx context.Context, listingURL string) ([]string, error) {
	doc, err := c.Fetch(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	links := tournamentLinks(doc)
	urls := make([]string, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, href := range links {
		abs, err := c.Absolute(href)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		urls = append(urls, abs)
	}
	return urls, nil
}

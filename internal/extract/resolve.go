package extract

import (
	"context"
	"net/url"
	"strings"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
)

// LinkResolver turns a team link found in the markup into a canonical team id.
// Implementations must not fail: when resolution is impossible they return the
// link unchanged.
type LinkResolver interface {
	ResolveLink(ctx context.Context, href string) string
}

// LinkResolverFunc adapts a function to the LinkResolver interface
type LinkResolverFunc func(ctx context.Context, href string) string

// ResolveLink calls f
func (f LinkResolverFunc) ResolveLink(ctx context.Context, href string) string {
	return f(ctx, href)
}

// BaseURLResolver absolutizes links against a base URL without following redirects.
// It is used for offline parsing, where two links to the same team only collapse
// to one id if they are spelled identically.
type BaseURLResolver struct {
	Base string
}

// ResolveLink joins href with the base URL
func (r BaseURLResolver) ResolveLink(_ context.Context, href string) string {
	if r.Base == "" {
		return href
	}
	base, err := url.Parse(r.Base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// ResolveTeam finds the roster entry referenced by a popup side. An entry matches
// when its id equals id or its name equals name, both compared case-insensitively.
// The first matching entry wins. An empty id means the link could not be extracted
// and never resolves; an empty name never matches by name.
func ResolveTeam(id, name string, roster []bracket.Team) (bracket.Team, bool) {
	if id == "" {
		return bracket.Team{}, false
	}
	for _, team := range roster {
		if strings.EqualFold(team.ID, id) {
			return team, true
		}
		if name != "" && strings.EqualFold(team.Name, name) {
			return team, true
		}
	}
	return bracket.Team{}, false
}

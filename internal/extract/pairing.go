package extract

import (
	"github.com/pfrederiksen/rl-brackets/internal/bracket"
)

// Indicator is one side's score for one game as it appears in the popup body
type Indicator struct {
	Score int
	Side  bracket.Side
}

// Scoreline is a completed left/right score pair
type Scoreline struct {
	Left  int
	Right int
}

// Pairer groups a stream of indicators into scorelines. The markup carries no game
// index, so a game boundary is the moment both sides have been seen.
type Pairer struct {
	pending *Indicator
}

// Advance feeds the next indicator. It returns a scoreline once an indicator for
// the opposite side of the pending one arrives. A repeated side replaces the
// pending value.
func (p *Pairer) Advance(ind Indicator) (Scoreline, bool) {
	if p.pending == nil || ind.Side != p.pending.Side.Opposite() {
		next := ind
		p.pending = &next
		return Scoreline{}, false
	}

	left, right := *p.pending, ind
	if left.Side == bracket.Right {
		left, right = right, left
	}
	p.pending = nil
	return Scoreline{Left: left.Score, Right: right.Score}, true
}

// Pending returns the indicator still waiting for its counterpart
func (p *Pairer) Pending() (Indicator, bool) {
	if p.pending == nil {
		return Indicator{}, false
	}
	return *p.pending, true
}

// PairScores converts indicators in markup order into games between left and right.
// A trailing indicator without a counterpart is dropped.
func PairScores(left, right bracket.Team, indicators []Indicator) []bracket.Game {
	games := make([]bracket.Game, 0, len(indicators)/2)
	var p Pairer
	for _, ind := range indicators {
		if sl, ok := p.Advance(ind); ok {
			games = append(games, bracket.NewGame(left, right, sl.Left, sl.Right))
		}
	}
	return games
}

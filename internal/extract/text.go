package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
)

// TimerLayout is the date format of the timer text, e.g. "May 30, 2019 - 17:00 UTC"
const TimerLayout = "January 2, 2006"

// timerLayoutShort accepts abbreviated month names, e.g. "Sep 14, 2019 - 17:00"
const timerLayoutShort = "Jan 2, 2006"

// parseTimerDate parses the calendar date in front of the first "-" of a timer text
func parseTimerDate(text string) (time.Time, bool) {
	datePart, _, _ := strings.Cut(text, "-")
	datePart = strings.Join(strings.Fields(datePart), " ")
	if datePart == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{TimerLayout, timerLayoutShort} {
		if t, err := time.Parse(layout, datePart); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSeat parses a roster seat number. Substitute and coach rows carry labels
// like "Sub" or "C" and fail here.
func parseSeat(text string) (int, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(text), 10, 8)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// parseScore parses an indicator's integer text
func parseScore(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

// placement reads the side an indicator floats to from its inline style
func placement(style string) (bracket.Side, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(style), ""))
	for _, decl := range strings.Split(normalized, ";") {
		switch decl {
		case "float:left":
			return bracket.Left, true
		case "float:right":
			return bracket.Right, true
		}
	}
	return bracket.Left, false
}

package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	durationPhrase = regexp.MustCompile(`^(?:last|past|previous)\s+(?:(\S+)\s+)?(minute|min|hour|hr|day|week|month|year)s?$`)
	agoPhrase      = regexp.MustCompile(`^(\S+)\s+(minute|min|hour|hr|day|week|month|year)s?\s+ago$`)
	rangePhrase    = regexp.MustCompile(`^(?:from|between)\s+(.+?)\s+(?:to|and|until|through)\s+(.+)$`)
	sincePhrase    = regexp.MustCompile(`^since\s+(.+)$`)
)

var phraseUnits = map[string]time.Duration{
	"minute": time.Minute,
	"min":    time.Minute,
	"hour":   time.Hour,
	"hr":     time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"fifteen": 15, "twenty": 20, "thirty": 30, "few": 3, "couple": 2, "several": 3,
}

var absoluteLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{time.DateOnly, true},
	{"2006/01/02", true},
	{"Jan 2 2006", true},
	{"Jan 2, 2006", true},
	{"January 2 2006", true},
	{"January 2, 2006", true},
	{"2 Jan 2006", true},
	{"2 January 2006", true},
}

type phraseInterpreter struct {
	parser *when.Parser
}

// NewPhraseInterpreter returns the default interpreter: explicit duration, range
// and date grammars first, then english natural-language dates.
func NewPhraseInterpreter() PhraseInterpreter {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)
	return &phraseInterpreter{parser: parser}
}

func (p *phraseInterpreter) Interpret(expression string, now time.Time) (time.Time, time.Time, bool) {
	text := cleanPhrase(expression)
	if text == "" {
		return time.Time{}, time.Time{}, false
	}
	now = now.UTC()

	if m := durationPhrase.FindStringSubmatch(text); m != nil {
		n, ok := phraseCount(m[1])
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		return lookback(now, n, phraseUnits[m[2]]), now, true
	}
	if m := agoPhrase.FindStringSubmatch(text); m != nil {
		n, ok := phraseCount(m[1])
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		return lookback(now, n, phraseUnits[m[2]]), now, true
	}
	if m := rangePhrase.FindStringSubmatch(text); m != nil {
		start, _, okStart := p.point(m[1], now)
		end, endDateOnly, okEnd := p.point(m[2], now)
		if !okStart || !okEnd {
			return time.Time{}, time.Time{}, false
		}
		if endDateOnly {
			end = end.Add(24 * time.Hour)
		}
		return start, capAt(end, now), true
	}
	if m := sincePhrase.FindStringSubmatch(text); m != nil {
		start, _, ok := p.point(m[1], now)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		return start, now, true
	}

	if t, dateOnly, ok := parseAbsolute(text); ok {
		if dateOnly {
			return t, capAt(t.Add(24*time.Hour), now), true
		}
		return t, now, true
	}

	t, ok := p.natural(text, now)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if t.After(now) {
		// Future instants carry no data yet; the resolver falls back to the trailing hour.
		return now, now, true
	}
	return t, now, true
}

func (p *phraseInterpreter) point(text string, now time.Time) (time.Time, bool, bool) {
	if t, dateOnly, ok := parseAbsolute(text); ok {
		return t, dateOnly, true
	}
	t, ok := p.natural(text, now)
	return t, false, ok
}

func (p *phraseInterpreter) natural(text string, now time.Time) (time.Time, bool) {
	result, err := p.parser.Parse(text, now)
	if err != nil || result == nil {
		return time.Time{}, false
	}
	return result.Time.UTC(), true
}

func parseAbsolute(text string) (time.Time, bool, bool) {
	// Month names match case-insensitively; the RFC 3339 separators do not.
	text = strings.ToUpper(text)
	for _, candidate := range absoluteLayouts {
		if t, err := time.ParseInLocation(candidate.layout, text, time.UTC); err == nil {
			return t.UTC(), candidate.dateOnly, true
		}
	}
	return time.Time{}, false, false
}

func phraseCount(word string) (int, bool) {
	if word == "" {
		return 1, true
	}
	if n, err := strconv.Atoi(word); err == nil && n >= 0 {
		return n, true
	}
	n, ok := numberWords[word]
	return n, ok
}

func cleanPhrase(expression string) string {
	text := strings.ToLower(strings.TrimSpace(expression))
	text = strings.TrimRight(text, "?.!")
	text = strings.ReplaceAll(text, "_", " ")
	for _, prefix := range []string{"in the ", "over the ", "during the ", "for the ", "within the "} {
		text = strings.TrimPrefix(text, prefix)
	}
	return strings.Join(strings.Fields(text), " ")
}

// lookback returns now minus n units. n is capped just past the longest window
// the resolver keeps so the product cannot overflow; the clamp then truncates.
func lookback(now time.Time, n int, unit time.Duration) time.Time {
	if limit := time.Duration(maxWindowMS)*time.Millisecond/unit + 1; time.Duration(n) > limit {
		n = int(limit)
	}
	return now.Add(-time.Duration(n) * unit)
}

func capAt(t, limit time.Time) time.Time {
	if t.After(limit) {
		return limit
	}
	return t
}

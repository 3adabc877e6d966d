package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/utils"
)

const (
	minWindowMS   = 5 * utils.MillisPerMinute
	maxWindowMS   = 730 * utils.MillisPerDay
	hourlyLimitMS = 3 * utils.MillisPerDay
	currentSpanMS = utils.MillisPerHour
	monthMS       = 30 * utils.MillisPerDay
	weekMS        = 7 * utils.MillisPerDay
	tokenCurrent  = "current"
)

var relativeToken = regexp.MustCompile(`^(?:past|last)_(\d+)_(minute|hour|day|week|month)s?$`)

var unitMillis = map[string]int64{
	"minute": utils.MillisPerMinute,
	"hour":   utils.MillisPerHour,
	"day":    utils.MillisPerDay,
	"week":   weekMS,
	"month":  monthMS,
}

// PhraseInterpreter turns free text such as "since last Tuesday" into an interval.
// ok is false when the phrase is not understood.
type PhraseInterpreter interface {
	Interpret(expression string, now time.Time) (start, end time.Time, ok bool)
}

// TimeRangeResolver maps time expressions to clamped, granularity-tagged windows.
type TimeRangeResolver struct {
	phrases PhraseInterpreter
}

// NewTimeRangeResolver builds a resolver. A nil interpreter selects the built-in one.
func NewTimeRangeResolver(phrases PhraseInterpreter) *TimeRangeResolver {
	if phrases == nil {
		phrases = NewPhraseInterpreter()
	}
	return &TimeRangeResolver{phrases: phrases}
}

// Resolve interprets expression relative to nowMS. Canonical tokens are computed
// arithmetically; anything else goes to the phrase interpreter. The result is
// clamped to [5m, 2y] before granularity is chosen.
func (r *TimeRangeResolver) Resolve(expression string, nowMS int64) (models.TimeWindow, error) {
	start, end, ok := canonicalRange(normaliseToken(expression), nowMS)
	if !ok {
		s, e, parsed := r.phrases.Interpret(strings.TrimSpace(expression), utils.FromMillis(nowMS))
		if !parsed {
			return models.TimeWindow{}, &models.TimeRangeError{Expression: expression}
		}
		start, end = s.UnixMilli(), e.UnixMilli()
	}

	start, end = clampWindow(start, end, nowMS)
	return models.TimeWindow{
		StartMS:     start,
		EndMS:       end,
		Granularity: granularityFor(end - start),
		Expression:  expression,
	}, nil
}

func normaliseToken(expression string) string {
	token := strings.ToLower(strings.TrimSpace(expression))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(token)
}

func canonicalRange(token string, now int64) (int64, int64, bool) {
	switch token {
	case "", tokenCurrent, "now", "right_now":
		return now - currentSpanMS, now, true
	case "today":
		return utils.DayStartMillis(now), now, true
	case "yesterday":
		today := utils.DayStartMillis(now)
		return today - utils.MillisPerDay, today, true
	case "last_hour", "past_hour", "recently":
		return now - utils.MillisPerHour, now, true
	case "last_24_hours", "past_24_hours", "last_day", "past_day":
		return now - utils.MillisPerDay, now, true
	case "this_week":
		return utils.WeekStartMillis(now), now, true
	case "last_week":
		week := utils.WeekStartMillis(now)
		return week - weekMS, week, true
	case "this_month":
		t := utils.FromMillis(now)
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.UnixMilli(), now, true
	case "last_month", "past_month":
		return now - monthMS, now, true
	}

	m := relativeToken.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, false
	}
	unit := unitMillis[m[2]]
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n > maxWindowMS/unit {
		// Larger than any window we would keep; the clamp truncates it.
		n = maxWindowMS/unit + 1
	}
	return now - n*unit, now, true
}

// clampWindow applies the empty-window fallback and the [5m, 2y] bounds.
func clampWindow(start, end, now int64) (int64, int64) {
	if end-start <= 0 {
		return now - currentSpanMS, now
	}
	if end-start < minWindowMS {
		end = start + minWindowMS
	}
	if end-start > maxWindowMS {
		start = end - maxWindowMS
	}
	return start, end
}

func granularityFor(durationMS int64) models.Granularity {
	if durationMS <= hourlyLimitMS {
		return models.GranularityHourly
	}
	return models.GranularityDaily
}

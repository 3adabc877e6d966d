package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/miradorstack/mirador-slo/internal/models"
)

// 2024-01-17 12:00:00 UTC, a Wednesday.
const testNowMS int64 = 1705492800000

const (
	hourMS = int64(3_600_000)
	dayMS  = 24 * hourMS
)

type stubPhrases struct {
	start, end time.Time
	ok         bool
	calls      int
}

func (s *stubPhrases) Interpret(expression string, now time.Time) (time.Time, time.Time, bool) {
	s.calls++
	return s.start, s.end, s.ok
}

func TestResolveCanonicalTokens(t *testing.T) {
	resolver := NewTimeRangeResolver(&stubPhrases{})
	today := int64(1705449600000) // 2024-01-17 00:00 UTC
	monday := today - 2*dayMS

	cases := []struct {
		expression string
		start, end int64
		index      models.Granularity
	}{
		{"past_7_days", testNowMS - 7*86_400_000, testNowMS, models.GranularityDaily},
		{"last_7_days", testNowMS - 7*86_400_000, testNowMS, models.GranularityDaily},
		{"current", testNowMS - 3_600_000, testNowMS, models.GranularityHourly},
		{"", testNowMS - 3_600_000, testNowMS, models.GranularityHourly},
		{"today", today, testNowMS, models.GranularityHourly},
		{"yesterday", today - dayMS, today, models.GranularityHourly},
		{"last_hour", testNowMS - hourMS, testNowMS, models.GranularityHourly},
		{"last_24_hours", testNowMS - dayMS, testNowMS, models.GranularityHourly},
		{"this_week", monday, testNowMS, models.GranularityHourly},
		{"last_week", monday - 7*dayMS, monday, models.GranularityDaily},
		{"last_month", testNowMS - 30*dayMS, testNowMS, models.GranularityDaily},
		{"past_3_hours", testNowMS - 3*hourMS, testNowMS, models.GranularityHourly},
		{"Past 2 Weeks", testNowMS - 14*dayMS, testNowMS, models.GranularityDaily},
		{"past_15_minutes", testNowMS - 15*60_000, testNowMS, models.GranularityHourly},
	}

	for _, tc := range cases {
		got, err := resolver.Resolve(tc.expression, testNowMS)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.expression, err)
		}
		if got.StartMS != tc.start || got.EndMS != tc.end {
			t.Fatalf("%q: expected [%d, %d], got [%d, %d]", tc.expression, tc.start, tc.end, got.StartMS, got.EndMS)
		}
		if got.Granularity != tc.index {
			t.Fatalf("%q: expected %s, got %s", tc.expression, tc.index, got.Granularity)
		}
		if got.Expression != tc.expression {
			t.Fatalf("%q: expression not echoed, got %q", tc.expression, got.Expression)
		}
	}
}

func TestResolveCanonicalTokensSkipPhraseInterpreter(t *testing.T) {
	phrases := &stubPhrases{}
	resolver := NewTimeRangeResolver(phrases)
	if _, err := resolver.Resolve("past_30_days", testNowMS); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phrases.calls != 0 {
		t.Fatalf("expected canonical token to bypass phrase interpreter")
	}
}

func TestResolveGranularityBoundary(t *testing.T) {
	threeDays := 3 * dayMS
	if got := granularityFor(threeDays); got != models.GranularityHourly {
		t.Fatalf("expected HOURLY for exactly 3 days, got %s", got)
	}
	if got := granularityFor(threeDays + 1); got != models.GranularityDaily {
		t.Fatalf("expected DAILY for 3 days + 1ms, got %s", got)
	}

	resolver := NewTimeRangeResolver(&stubPhrases{
		start: time.UnixMilli(testNowMS - threeDays),
		end:   time.UnixMilli(testNowMS),
		ok:    true,
	})
	got, err := resolver.Resolve("over the weekend", testNowMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Granularity != models.GranularityHourly {
		t.Fatalf("expected HOURLY, got %s", got.Granularity)
	}
}

func TestResolveClampsShortWindows(t *testing.T) {
	start := testNowMS - 60_000
	resolver := NewTimeRangeResolver(&stubPhrases{start: time.UnixMilli(start), end: time.UnixMilli(testNowMS), ok: true})

	got, err := resolver.Resolve("a minute ago", testNowMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EndMS-got.StartMS != 5*60_000 {
		t.Fatalf("expected 5 minute window, got %dms", got.EndMS-got.StartMS)
	}
	if got.StartMS != start || got.EndMS < testNowMS {
		t.Fatalf("expected end extended from original start, got [%d, %d]", got.StartMS, got.EndMS)
	}
}

func TestResolveTruncatesLongWindows(t *testing.T) {
	end := testNowMS - dayMS
	resolver := NewTimeRangeResolver(&stubPhrases{
		start: time.UnixMilli(end - 1000*dayMS),
		end:   time.UnixMilli(end),
		ok:    true,
	})

	got, err := resolver.Resolve("since the beginning", testNowMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EndMS != end {
		t.Fatalf("expected end unchanged at %d, got %d", end, got.EndMS)
	}
	if got.EndMS-got.StartMS != 730*dayMS {
		t.Fatalf("expected 2 year window, got %dms", got.EndMS-got.StartMS)
	}
	if got.Granularity != models.GranularityDaily {
		t.Fatalf("expected DAILY, got %s", got.Granularity)
	}

	months, err := resolver.Resolve("past_9999999999_months", testNowMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if months.EndMS-months.StartMS != 730*dayMS || months.EndMS != testNowMS {
		t.Fatalf("expected oversized token truncated to 2 years, got [%d, %d]", months.StartMS, months.EndMS)
	}
}

func TestResolveTruncatesOversizedPhrases(t *testing.T) {
	resolver := NewTimeRangeResolver(nil)
	for _, expr := range []string{"past 300 years", "300 years ago", "previous 5000 months", "previous 99999999 minutes"} {
		got, err := resolver.Resolve(expr, testNowMS)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", expr, err)
		}
		if got.EndMS != testNowMS || got.StartMS != testNowMS-730*dayMS {
			t.Fatalf("%q: expected 2 year window ending now, got [%d, %d]", expr, got.StartMS, got.EndMS)
		}
		if got.Granularity != models.GranularityDaily {
			t.Fatalf("%q: expected DAILY, got %s", expr, got.Granularity)
		}
	}
}

func TestResolveEmptyIntervalFallsBackToTrailingHour(t *testing.T) {
	now := time.UnixMilli(testNowMS)
	resolver := NewTimeRangeResolver(&stubPhrases{start: now, end: now, ok: true})

	got, err := resolver.Resolve("right about now", testNowMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StartMS != testNowMS-3_600_000 || got.EndMS != testNowMS {
		t.Fatalf("expected trailing hour, got [%d, %d]", got.StartMS, got.EndMS)
	}
}

func TestResolveUnknownExpression(t *testing.T) {
	resolver := NewTimeRangeResolver(&stubPhrases{ok: false})

	_, err := resolver.Resolve("when the moon is blue", testNowMS)
	var rangeErr *models.TimeRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected TimeRangeError, got %v", err)
	}
	if rangeErr.Expression != "when the moon is blue" {
		t.Fatalf("unexpected expression %q", rangeErr.Expression)
	}
}

func TestResolveIsDeterministicForAbsoluteDates(t *testing.T) {
	resolver := NewTimeRangeResolver(nil)
	first, err := resolver.Resolve("from 2024-01-01 to 2024-01-07", testNowMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := resolver.Resolve("from 2024-01-01 to 2024-01-07", testNowMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical windows, got %+v and %+v", first, second)
	}
	wantStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	wantEnd := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC).UnixMilli()
	if first.StartMS != wantStart || first.EndMS != wantEnd {
		t.Fatalf("expected [%d, %d], got [%d, %d]", wantStart, wantEnd, first.StartMS, first.EndMS)
	}
}

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhraseInterpreter(t *testing.T) {
	now := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	interpreter := NewPhraseInterpreter()

	cases := []struct {
		phrase     string
		start, end time.Time
	}{
		{"last 3 hours", now.Add(-3 * time.Hour), now},
		{"past two weeks", now.Add(-14 * day), now},
		{"in the last day", now.Add(-day), now},
		{"previous month", now.Add(-30 * day), now},
		{"3 days ago", now.Add(-3 * day), now},
		{"since 2024-01-10", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), now},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)},
		{"2024-01-17", time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), now},
		{"Jan 5, 2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)},
		{"between 2024-01-01 and 2024-01-03", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
		{"from 2024-01-16T08:00:00Z to 2024-01-16T10:30:00Z", time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC), time.Date(2024, 1, 16, 10, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		start, end, ok := interpreter.Interpret(tc.phrase, now)
		require.True(t, ok, tc.phrase)
		assert.True(t, tc.start.Equal(start), "%s: start %s, want %s", tc.phrase, start, tc.start)
		assert.True(t, tc.end.Equal(end), "%s: end %s, want %s", tc.phrase, end, tc.end)
	}
}

func TestPhraseInterpreterRejectsNoise(t *testing.T) {
	interpreter := NewPhraseInterpreter()
	now := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)

	for _, phrase := range []string{"", "   ", "last umpteen days"} {
		_, _, ok := interpreter.Interpret(phrase, now)
		assert.False(t, ok, "%q should not be understood", phrase)
	}
}

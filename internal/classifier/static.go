package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/miradorstack/mirador-slo/internal/models"
)

// keywordRules map question phrases to intents for the offline classifier.
// The first matching rule sets the primary intent.
var keywordRules = []struct {
	phrase string
	intent models.IntentID
}{
	{"root cause", models.IntentRootCauseSingle},
	{"why did", models.IntentRootCauseSingle},
	{"error budget", models.IntentErrorBudgetStatus},
	{"burn", models.IntentErrorBudgetStatus},
	{"every week", models.IntentRecurringIncident},
	{"keeps failing", models.IntentRecurringIncident},
	{"recurring", models.IntentRecurringIncident},
	{"seasonal", models.IntentSeasonalityPattern},
	{"weekend", models.IntentSeasonalityPattern},
	{"capacity", models.IntentCapacityRisk},
	{"spike", models.IntentTimeWindowAnomaly},
	{"anomal", models.IntentTimeWindowAnomaly},
	{"drift", models.IntentUndercurrentsTrend},
	{"degrad", models.IntentUndercurrentsTrend},
	{"compared to", models.IntentHistoricalComparison},
	{" vs ", models.IntentHistoricalComparison},
	{"predict", models.IntentRiskPrediction},
	{"health", models.IntentServiceHealth},
}

var (
	dynamicRange = regexp.MustCompile(`\b(?:past|last)\s+(\d+)\s+(minute|hour|day|week|month)s?\b`)
	staticRanges = []struct {
		phrase string
		token  string
	}{
		{"yesterday", "yesterday"},
		{"today", "today"},
		{"last hour", "last_hour"},
		{"this week", "this_week"},
		{"last week", "last_week"},
		{"last month", "last_month"},
		{"recently", "last_hour"},
	}
)

// Static classifies with keyword rules and needs no model. It backs local
// development and tests.
type Static struct {
	fallback  models.IntentID
	timeRange string
}

// NewStatic builds a keyword classifier. An empty intent falls back to
// CURRENT_HEALTH and an empty time range to "current".
func NewStatic(intent, timeRange string) (*Static, error) {
	fallback := models.IntentCurrentHealth
	if strings.TrimSpace(intent) != "" {
		id, ok := models.ParseIntent(intent)
		if !ok {
			return nil, fmt.Errorf("unknown static intent %q", intent)
		}
		fallback = id
	}
	if strings.TrimSpace(timeRange) == "" {
		timeRange = defaultTimeRange
	}
	return &Static{fallback: fallback, timeRange: timeRange}, nil
}

// Classify picks intents and a time token from the question's wording.
func (s *Static) Classify(_ context.Context, query string) (models.Classification, error) {
	text := " " + strings.ToLower(query) + " "

	cls := models.Classification{Primary: s.fallback}
	matched := false
	for _, rule := range keywordRules {
		if !strings.Contains(text, rule.phrase) {
			continue
		}
		if !matched {
			cls.Primary = rule.intent
			matched = true
			continue
		}
		if rule.intent != cls.Primary && !containsIntent(cls.Secondary, rule.intent) {
			cls.Secondary = append(cls.Secondary, rule.intent)
		}
	}

	cls.Entities.TimeExpression = s.timeRange
	if m := dynamicRange.FindStringSubmatch(text); m != nil {
		cls.Entities.TimeExpression = fmt.Sprintf("past_%s_%ss", m[1], m[2])
	} else {
		for _, r := range staticRanges {
			if strings.Contains(text, r.phrase) {
				cls.Entities.TimeExpression = r.token
				break
			}
		}
	}
	return cls, nil
}

func containsIntent(ids []models.IntentID, id models.IntentID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

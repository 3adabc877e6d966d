package engine

import (
	"github.com/miradorstack/mirador-slo/internal/models"
)

// Function names carried on directives.
const (
	FunctionUndercurrentsTrend   = "undercurrents_trend"
	FunctionCapacityRisk         = "capacity_risk"
	FunctionSeasonalityPattern   = "seasonality_pattern"
	FunctionTimeWindowAnomaly    = "time_window_anomaly"
	FunctionRecurringIncident    = "recurring_incident"
	FunctionHistoricalComparison = "historical_comparison"
	FunctionRiskPrediction       = "risk_prediction"
	FunctionGeneralPatterns      = "general"
	FunctionServiceHealth        = "service_health"
	FunctionErrorBudgetStatus    = "error_budget_status"
	FunctionCurrentHealth        = "current_health"
	FunctionUnsupportedSource    = "unsupported_source"
)

const suddenChangeLimitMS = 3_600_000

type patternRule struct {
	intent   models.IntentID
	function string
	patterns func(models.TimeWindow) []string
	strategy models.TimeFilterStrategy
	groupBy  models.GroupBy
}

func fixedPatterns(types ...string) func(models.TimeWindow) []string {
	return func(models.TimeWindow) []string { return types }
}

// patternRules is evaluated in order; directive order follows it.
var patternRules = []patternRule{
	{
		intent:   models.IntentUndercurrentsTrend,
		function: FunctionUndercurrentsTrend,
		patterns: func(w models.TimeWindow) []string {
			if w.EndMS-w.StartMS <= suddenChangeLimitMS {
				return []string{"sudden_spike", "sudden_drop"}
			}
			return []string{"drift_up", "drift_down"}
		},
		strategy: models.StrategyStrict,
		groupBy:  models.GroupByNone,
	},
	{
		intent:   models.IntentCapacityRisk,
		function: FunctionCapacityRisk,
		patterns: fixedPatterns("volume_driven"),
		strategy: models.StrategyOverlap,
		groupBy:  models.GroupByNone,
	},
	{
		intent:   models.IntentSeasonalityPattern,
		function: FunctionSeasonalityPattern,
		patterns: fixedPatterns("weekly"),
		strategy: models.StrategyOverlap,
		groupBy:  models.GroupByDayOfWeek,
	},
	{
		intent:   models.IntentTimeWindowAnomaly,
		function: FunctionTimeWindowAnomaly,
		patterns: fixedPatterns("daily"),
		strategy: models.StrategyOverlap,
		groupBy:  models.GroupByHourOfDay,
	},
	{
		intent:   models.IntentRecurringIncident,
		function: FunctionRecurringIncident,
		patterns: fixedPatterns("daily", "weekly"),
		strategy: models.StrategyHistorical,
		groupBy:  models.GroupByNone,
	},
}

type pendingRule struct {
	intent   models.IntentID
	function string
}

var pendingPatternRules = []pendingRule{
	{models.IntentHistoricalComparison, FunctionHistoricalComparison},
	{models.IntentRiskPrediction, FunctionRiskPrediction},
}

type pointRule struct {
	intent         models.IntentID
	function       string
	requireService bool
}

// pointRules is in priority order; only the first present intent runs.
var pointRules = []pointRule{
	{models.IntentServiceHealth, FunctionServiceHealth, true},
	{models.IntentErrorBudgetStatus, FunctionErrorBudgetStatus, false},
	{models.IntentCurrentHealth, FunctionCurrentHealth, false},
}

// Plan decides which directives run against which data sources. A source is
// planned only when it appears in sources. Sources without a query planner get
// a single NOT_IMPLEMENTED directive so they still appear in the response.
func Plan(intents models.IntentSet, sources models.DataSourceSet, window models.TimeWindow, serviceID *int64) models.DispatchPlan {
	var plan models.DispatchPlan
	for _, source := range sources.Sorted() {
		switch source {
		case models.SourcePatterns:
			for _, d := range planPatterns(intents, window, serviceID) {
				plan.Add(source, d)
			}
		case models.SourceStatsAPI:
			if d, ok := planPointMetrics(intents, window, serviceID); ok {
				plan.Add(source, d)
			}
		default:
			plan.Add(source, models.QueryDirective{
				Function:    FunctionUnsupportedSource,
				Window:      window,
				ServiceID:   serviceID,
				Disposition: models.DispositionNotImplemented,
			})
		}
	}
	return plan
}

func planPatterns(intents models.IntentSet, window models.TimeWindow, serviceID *int64) []models.QueryDirective {
	directives := make([]models.QueryDirective, 0, len(patternRules))
	for _, rule := range patternRules {
		if !intents.Has(rule.intent) {
			continue
		}
		directives = append(directives, models.QueryDirective{
			Function:     rule.function,
			Intent:       rule.intent,
			PatternTypes: rule.patterns(window),
			Strategy:     rule.strategy,
			GroupBy:      rule.groupBy,
			Window:       window,
			ServiceID:    serviceID,
			Disposition:  models.DispositionExecute,
		})
	}
	for _, rule := range pendingPatternRules {
		if !intents.Has(rule.intent) {
			continue
		}
		directives = append(directives, models.QueryDirective{
			Function:    rule.function,
			Intent:      rule.intent,
			Window:      window,
			ServiceID:   serviceID,
			Disposition: models.DispositionNotImplemented,
		})
	}
	if len(directives) == 0 {
		directives = append(directives, models.QueryDirective{
			Function:    FunctionGeneralPatterns,
			Strategy:    models.StrategyStrict,
			GroupBy:     models.GroupByNone,
			Window:      window,
			ServiceID:   serviceID,
			Disposition: models.DispositionExecute,
		})
	}
	return directives
}

func planPointMetrics(intents models.IntentSet, window models.TimeWindow, serviceID *int64) (models.QueryDirective, bool) {
	for _, rule := range pointRules {
		if !intents.Has(rule.intent) {
			continue
		}
		d := models.QueryDirective{
			Function:    rule.function,
			Intent:      rule.intent,
			Window:      window,
			ServiceID:   serviceID,
			Disposition: models.DispositionExecute,
		}
		if rule.requireService && serviceID == nil {
			d.Disposition = models.DispositionMissingService
		}
		return d, true
	}
	return models.QueryDirective{}, false
}

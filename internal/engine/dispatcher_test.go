package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/mirador-slo/internal/models"
)

func testWindow(durationMS int64) models.TimeWindow {
	return models.TimeWindow{
		StartMS:     testNowMS - durationMS,
		EndMS:       testNowMS,
		Granularity: granularityFor(durationMS),
	}
}

func intentSet(ids ...models.IntentID) models.IntentSet { return models.NewSet(ids...) }

func sourceSet(ids ...models.DataSourceID) models.DataSourceSet { return models.NewSet(ids...) }

func TestPlanPointMetricsPriority(t *testing.T) {
	id := int64(101)
	plan := Plan(
		intentSet(models.IntentServiceHealth, models.IntentCurrentHealth, models.IntentErrorBudgetStatus),
		sourceSet(models.SourceStatsAPI),
		testWindow(hourMS), &id,
	)

	directives := plan.For(models.SourceStatsAPI)
	require.Len(t, directives, 1)
	assert.Equal(t, FunctionServiceHealth, directives[0].Function)
	assert.Equal(t, models.DispositionExecute, directives[0].Disposition)
	assert.Equal(t, &id, directives[0].ServiceID)

	plan = Plan(intentSet(models.IntentCurrentHealth, models.IntentErrorBudgetStatus), sourceSet(models.SourceStatsAPI), testWindow(hourMS), nil)
	require.Len(t, plan.For(models.SourceStatsAPI), 1)
	assert.Equal(t, FunctionErrorBudgetStatus, plan.For(models.SourceStatsAPI)[0].Function)
}

func TestPlanServiceHealthWithoutServiceIsFlagged(t *testing.T) {
	plan := Plan(intentSet(models.IntentServiceHealth, models.IntentCurrentHealth), sourceSet(models.SourceStatsAPI), testWindow(hourMS), nil)

	directives := plan.For(models.SourceStatsAPI)
	require.Len(t, directives, 1)
	assert.Equal(t, FunctionServiceHealth, directives[0].Function)
	assert.Equal(t, models.DispositionMissingService, directives[0].Disposition)
}

func TestPlanPointMetricsWithoutHealthIntent(t *testing.T) {
	plan := Plan(intentSet(models.IntentSLODefinition), sourceSet(models.SourceStatsAPI), testWindow(hourMS), nil)
	assert.Empty(t, plan.For(models.SourceStatsAPI))
	assert.Empty(t, plan.Sources)
}

func TestPlanPatternRulesInTableOrder(t *testing.T) {
	plan := Plan(
		intentSet(
			models.IntentRecurringIncident,
			models.IntentTimeWindowAnomaly,
			models.IntentSeasonalityPattern,
			models.IntentCapacityRisk,
			models.IntentUndercurrentsTrend,
			models.IntentRiskPrediction,
			models.IntentHistoricalComparison,
		),
		sourceSet(models.SourcePatterns),
		testWindow(7*dayMS), nil,
	)

	directives := plan.For(models.SourcePatterns)
	functions := make([]string, 0, len(directives))
	for _, d := range directives {
		functions = append(functions, d.Function)
	}
	assert.Equal(t, []string{
		FunctionUndercurrentsTrend,
		FunctionCapacityRisk,
		FunctionSeasonalityPattern,
		FunctionTimeWindowAnomaly,
		FunctionRecurringIncident,
		FunctionHistoricalComparison,
		FunctionRiskPrediction,
	}, functions)

	assert.Equal(t, []string{"drift_up", "drift_down"}, directives[0].PatternTypes)
	assert.Equal(t, models.StrategyStrict, directives[0].Strategy)
	assert.Equal(t, []string{"volume_driven"}, directives[1].PatternTypes)
	assert.Equal(t, models.StrategyOverlap, directives[1].Strategy)
	assert.Equal(t, models.GroupByDayOfWeek, directives[2].GroupBy)
	assert.Equal(t, models.GroupByHourOfDay, directives[3].GroupBy)
	assert.Equal(t, models.StrategyHistorical, directives[4].Strategy)
	assert.Equal(t, []string{"daily", "weekly"}, directives[4].PatternTypes)
	assert.Equal(t, models.DispositionNotImplemented, directives[5].Disposition)
	assert.Equal(t, models.DispositionNotImplemented, directives[6].Disposition)
}

func TestPlanUndercurrentsShortWindowUsesSuddenChanges(t *testing.T) {
	plan := Plan(intentSet(models.IntentUndercurrentsTrend), sourceSet(models.SourcePatterns), testWindow(hourMS), nil)
	require.Len(t, plan.For(models.SourcePatterns), 1)
	assert.Equal(t, []string{"sudden_spike", "sudden_drop"}, plan.For(models.SourcePatterns)[0].PatternTypes)

	plan = Plan(intentSet(models.IntentUndercurrentsTrend), sourceSet(models.SourcePatterns), testWindow(hourMS+1), nil)
	assert.Equal(t, []string{"drift_up", "drift_down"}, plan.For(models.SourcePatterns)[0].PatternTypes)
}

func TestPlanPatternFallbackToGeneral(t *testing.T) {
	plan := Plan(intentSet(models.IntentRootCauseSingle), sourceSet(models.SourcePatterns), testWindow(dayMS), nil)

	directives := plan.For(models.SourcePatterns)
	require.Len(t, directives, 1)
	assert.Equal(t, FunctionGeneralPatterns, directives[0].Function)
	assert.Equal(t, models.StrategyStrict, directives[0].Strategy)
	assert.Empty(t, directives[0].PatternTypes)
	assert.Equal(t, models.DispositionExecute, directives[0].Disposition)
}

func TestPlanPendingOnlySkipsFallback(t *testing.T) {
	plan := Plan(intentSet(models.IntentRiskPrediction), sourceSet(models.SourcePatterns), testWindow(dayMS), nil)

	directives := plan.For(models.SourcePatterns)
	require.Len(t, directives, 1)
	assert.Equal(t, FunctionRiskPrediction, directives[0].Function)
	assert.Equal(t, models.DispositionNotImplemented, directives[0].Disposition)
}

func TestPlanUnsupportedSource(t *testing.T) {
	plan := Plan(
		intentSet(models.IntentMitigationSteps, models.IntentCurrentHealth),
		sourceSet(models.SourcePostgres, models.SourceStatsAPI),
		testWindow(hourMS), nil,
	)

	assert.Equal(t, []models.DataSourceID{models.SourceStatsAPI, models.SourcePostgres}, plan.Sources)
	postgres := plan.For(models.SourcePostgres)
	require.Len(t, postgres, 1)
	assert.Equal(t, FunctionUnsupportedSource, postgres[0].Function)
	assert.Equal(t, models.DispositionNotImplemented, postgres[0].Disposition)
}

func TestPlanNeverDuplicatesDirectives(t *testing.T) {
	all := intentSet(models.AllIntents()...)
	plan := Plan(all, sourceSet(models.SourcePatterns, models.SourceStatsAPI), testWindow(dayMS), nil)

	for _, source := range plan.Sources {
		seen := map[string]bool{}
		for _, d := range plan.For(source) {
			require.False(t, seen[d.Function], "duplicate %s for %s", d.Function, source)
			seen[d.Function] = true
		}
	}
}

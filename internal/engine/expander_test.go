package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/tables"
)

func testRules() tables.EnrichmentRules {
	return tables.EnrichmentRules{
		models.IntentRootCauseSingle: {models.IntentUndercurrentsTrend, models.IntentMitigationSteps},
		models.IntentCurrentHealth:   {models.IntentUndercurrentsTrend},
		// Cyclic on purpose; a single pass must not chase it.
		models.IntentUndercurrentsTrend: {models.IntentCapacityRisk},
		models.IntentCapacityRisk:       {models.IntentUndercurrentsTrend},
	}
}

func testSources() tables.IntentSources {
	return tables.IntentSources{
		models.IntentRootCauseSingle:    {models.SourcePatterns, models.SourceOpenSearch},
		models.IntentUndercurrentsTrend: {models.SourcePatterns},
		models.IntentCurrentHealth:      {models.SourceStatsAPI},
		models.IntentServiceHealth:      {models.SourceStatsAPI},
	}
}

func TestExpandRootCauseSingle(t *testing.T) {
	rules := tables.EnrichmentRules{
		models.IntentRootCauseSingle: {models.IntentUndercurrentsTrend, models.IntentMitigationSteps},
	}
	got := Expand(models.IntentRootCauseSingle, nil, rules, testSources())

	assert.ElementsMatch(t, []models.IntentID{
		models.IntentRootCauseSingle,
		models.IntentUndercurrentsTrend,
		models.IntentMitigationSteps,
	}, got.Enriched.Sorted())
	assert.True(t, got.EnrichmentApplied)
	// MITIGATION_STEPS has no source entry and contributes nothing.
	assert.Equal(t, []models.DataSourceID{models.SourcePatterns, models.SourceOpenSearch}, got.DataSources.Sorted())
}

func TestExpandIsSinglePass(t *testing.T) {
	got := Expand(models.IntentCurrentHealth, nil, testRules(), testSources())

	assert.True(t, got.Enriched.Has(models.IntentUndercurrentsTrend))
	assert.False(t, got.Enriched.Has(models.IntentCapacityRisk), "rule additions must not be re-expanded")
}

func TestExpandContainsInputsAndIsIdempotent(t *testing.T) {
	rules, sources := testRules(), testSources()
	for _, primary := range models.AllIntents() {
		secondary := []models.IntentID{models.IntentServiceHealth, primary, models.IntentServiceHealth}
		first := Expand(primary, secondary, rules, sources)
		second := Expand(primary, secondary, rules, sources)

		require.True(t, first.Enriched.Has(primary), primary)
		require.True(t, first.Enriched.Has(models.IntentServiceHealth), primary)
		require.Equal(t, first.Enriched.Sorted(), second.Enriched.Sorted(), primary)
		require.Equal(t, first.DataSources.Sorted(), second.DataSources.Sorted(), primary)
		require.NotContains(t, first.Secondary, primary)
	}
}

func TestExpandWithoutRulesLeavesFlagUnset(t *testing.T) {
	got := Expand(models.IntentServiceHealth, []models.IntentID{models.IntentSLODefinition}, nil, testSources())

	assert.False(t, got.EnrichmentApplied)
	assert.Equal(t, []models.IntentID{models.IntentSLODefinition}, got.Secondary)
	assert.Equal(t, []models.DataSourceID{models.SourceStatsAPI}, got.DataSources.Sorted())
}

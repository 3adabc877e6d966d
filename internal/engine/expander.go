package engine

import (
	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/tables"
)

// Expand builds the enriched intent set and the data sources it needs.
//
// Enrichment is a single pass: additions are looked up for the classifier's
// intents only, never for intents that enrichment itself introduced. Intents
// missing from the source table contribute no sources.
func Expand(primary models.IntentID, secondary []models.IntentID, rules tables.EnrichmentRules, sources tables.IntentSources) models.ExpandedIntents {
	base := models.NewSet(primary)
	base.Add(secondary...)

	enriched := models.NewSet[models.IntentID]()
	applied := false
	for id := range base {
		enriched.Add(id)
		if additions := rules[id]; len(additions) > 0 {
			enriched.Add(additions...)
			applied = true
		}
	}

	dataSources := models.NewSet[models.DataSourceID]()
	for id := range enriched {
		dataSources.Add(sources[id]...)
	}

	return models.ExpandedIntents{
		Primary:           primary,
		Secondary:         dedupe(secondary, primary),
		Enriched:          enriched,
		DataSources:       dataSources,
		EnrichmentApplied: applied,
	}
}

func dedupe(ids []models.IntentID, skip models.IntentID) []models.IntentID {
	seen := models.NewSet(skip)
	out := make([]models.IntentID, 0, len(ids))
	for _, id := range ids {
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		out = append(out, id)
	}
	return out
}

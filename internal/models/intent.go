package models

import (
	"slices"
	"strings"
)

// IntentID identifies one member of the closed set of classifier intents.
type IntentID string

const (
	IntentCurrentHealth        IntentID = "CURRENT_HEALTH"
	IntentServiceHealth        IntentID = "SERVICE_HEALTH"
	IntentErrorBudgetStatus    IntentID = "ERROR_BUDGET_STATUS"
	IntentUndercurrentsTrend   IntentID = "UNDERCURRENTS_TREND"
	IntentCapacityRisk         IntentID = "CAPACITY_RISK"
	IntentSeasonalityPattern   IntentID = "SEASONALITY_PATTERN"
	IntentTimeWindowAnomaly    IntentID = "TIME_WINDOW_ANOMALY"
	IntentRecurringIncident    IntentID = "RECURRING_INCIDENT"
	IntentHistoricalComparison IntentID = "HISTORICAL_COMPARISON"
	IntentRiskPrediction       IntentID = "RISK_PREDICTION"
	IntentRootCauseSingle      IntentID = "ROOT_CAUSE_SINGLE"
	IntentRootCauseMulti       IntentID = "ROOT_CAUSE_MULTI"
	IntentDependencyImpact     IntentID = "DEPENDENCY_IMPACT"
	IntentMitigationSteps      IntentID = "MITIGATION_STEPS"
	IntentSLODefinition        IntentID = "SLO_DEFINITION"
)

var allIntents = []IntentID{
	IntentCurrentHealth,
	IntentServiceHealth,
	IntentErrorBudgetStatus,
	IntentUndercurrentsTrend,
	IntentCapacityRisk,
	IntentSeasonalityPattern,
	IntentTimeWindowAnomaly,
	IntentRecurringIncident,
	IntentHistoricalComparison,
	IntentRiskPrediction,
	IntentRootCauseSingle,
	IntentRootCauseMulti,
	IntentDependencyImpact,
	IntentMitigationSteps,
	IntentSLODefinition,
}

// AllIntents lists every recognised intent in catalogue order.
func AllIntents() []IntentID {
	return slices.Clone(allIntents)
}

// ParseIntent normalises s and reports whether it names a known intent.
func ParseIntent(s string) (IntentID, bool) {
	id := IntentID(strings.ToUpper(strings.TrimSpace(s)))
	return id, slices.Contains(allIntents, id)
}

// DataSourceID names a backend that can answer part of a query.
type DataSourceID string

const (
	// SourceStatsAPI serves point-in-time SLO health from the error-budget statistics service.
	SourceStatsAPI DataSourceID = "java_stats_api"
	// SourcePatterns serves learned behaviour patterns from the ClickHouse memory table.
	SourcePatterns DataSourceID = "clickhouse"

	SourcePostgres   DataSourceID = "postgres"
	SourceOpenSearch DataSourceID = "opensearch"
)

// Set is an unordered collection of string-backed identifiers.
type Set[T ~string] map[T]struct{}

// NewSet builds a set from ids.
func NewSet[T ~string](ids ...T) Set[T] {
	s := make(Set[T], len(ids))
	s.Add(ids...)
	return s
}

// Add inserts ids, ignoring duplicates.
func (s Set[T]) Add(ids ...T) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has reports membership.
func (s Set[T]) Has(id T) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order so output is deterministic.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// IntentSet is a set of intents.
type IntentSet = Set[IntentID]

// DataSourceSet is a set of data sources.
type DataSourceSet = Set[DataSourceID]

package models

// Entities are the raw, unvalidated values the classifier extracted from the question.
type Entities struct {
	ServiceName          *string `json:"service"`
	TimeExpression       string  `json:"time_range"`
	ComparisonExpression *string `json:"comparison_range"`
}

// Classification is the classifier's verdict for a single question.
type Classification struct {
	Primary   IntentID
	Secondary []IntentID
	Entities  Entities
	// Unrecognized holds secondary intents outside the closed set; they are dropped.
	Unrecognized []string
}

// ExpandedIntents is the classification after enrichment rules were applied.
type ExpandedIntents struct {
	Primary           IntentID
	Secondary         []IntentID
	Enriched          IntentSet
	DataSources       DataSourceSet
	EnrichmentApplied bool
}

// QueryRequest is a natural-language question plus an optional explicit service name.
type QueryRequest struct {
	Query   string
	Service string
}

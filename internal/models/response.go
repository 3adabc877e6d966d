package models

// AggregatedResponse is the JSON document returned for every question.
type AggregatedResponse struct {
	Success         bool                          `json:"success"`
	Query           string                        `json:"query"`
	Error           string                        `json:"error,omitempty"`
	Classification  *ClassificationView           `json:"classification,omitempty"`
	TimeResolution  *TimeResolution               `json:"time_resolution,omitempty"`
	DataSourcesUsed []DataSourceID                `json:"data_sources_used"`
	Data            map[DataSourceID]SourceResult `json:"data"`
	Metadata        ResponseMetadata              `json:"metadata"`

	ServiceMatch *ServiceMatch `json:"-"`
}

// ClassificationView renders the classification and enrichment outcome.
type ClassificationView struct {
	PrimaryIntent    IntentID   `json:"primary_intent"`
	SecondaryIntents []IntentID `json:"secondary_intents"`
	EnrichedIntents  []IntentID `json:"enriched_intents"`
	Entities         Entities   `json:"entities"`
}

// TimeResolution renders the resolved window.
type TimeResolution struct {
	StartTime int64       `json:"start_time"`
	EndTime   int64       `json:"end_time"`
	Index     Granularity `json:"index"`
	TimeRange string      `json:"time_range"`
}

// ResponseMetadata carries request-scoped context.
type ResponseMetadata struct {
	AppID             int64   `json:"app_id"`
	Service           *string `json:"service"`
	EnrichmentApplied bool    `json:"enrichment_applied"`
}

package models

import "encoding/json"

// PatternQuery is the pattern-source adapter input for one directive.
type PatternQuery struct {
	AppID        int64
	PatternTypes []string
	StartMS      int64
	EndMS        int64
	Strategy     TimeFilterStrategy
	GroupBy      GroupBy
	ServiceID    *int64
}

// PatternRecord is one learned behaviour pattern row.
type PatternRecord struct {
	ApplicationID   int64           `json:"application_id"`
	ServiceID       int64           `json:"service_id"`
	Service         string          `json:"service"`
	Metric          string          `json:"metric"`
	BaselineState   string          `json:"baseline_state"`
	BaselineValue   float64         `json:"baseline_value"`
	PatternType     string          `json:"pattern_type"`
	PatternWindow   string          `json:"pattern_window"`
	DeltaSuccess    float64         `json:"delta_success"`
	DeltaLatencyP90 float64         `json:"delta_latency_p90"`
	SupportDays     float64         `json:"support_days"`
	Confidence      float64         `json:"confidence"`
	LongTerm        json.RawMessage `json:"long_term,omitempty"`
	Recency         json.RawMessage `json:"recency,omitempty"`
	FirstSeen       string          `json:"first_seen"`
	LastSeen        string          `json:"last_seen"`
	DetectedAt      string          `json:"detected_at"`
	DayOfWeek       *int            `json:"day_of_week,omitempty"`
	HourOfDay       *int            `json:"hour_of_day,omitempty"`
}

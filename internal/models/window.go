package models

import "time"

// Granularity is the aggregation index requested from the point-metrics source.
type Granularity string

const (
	GranularityHourly Granularity = "HOURLY"
	GranularityDaily  Granularity = "DAILY"
)

// TimeWindow is a resolved UTC interval in epoch milliseconds.
type TimeWindow struct {
	StartMS     int64
	EndMS       int64
	Granularity Granularity
	// Expression is the text the window was resolved from.
	Expression string
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return time.Duration(w.EndMS-w.StartMS) * time.Millisecond
}

// Start returns the window start as a UTC time.
func (w TimeWindow) Start() time.Time {
	return time.UnixMilli(w.StartMS).UTC()
}

// End returns the window end as a UTC time.
func (w TimeWindow) End() time.Time {
	return time.UnixMilli(w.EndMS).UTC()
}

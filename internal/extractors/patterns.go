package extractors

import (
	"fmt"

	"github.com/miradorstack/mirador-slo/internal/models"
)

// Baseline states used to bucket capacity findings.
const (
	stateChronic = "CHRONIC"
	stateAtRisk  = "AT_RISK"
)

var dayNames = map[int]string{
	1: "Monday", 2: "Tuesday", 3: "Wednesday", 4: "Thursday",
	5: "Friday", 6: "Saturday", 7: "Sunday",
}

// PatternExtractor shapes pattern rows into the per-intent views consumers expect.
type PatternExtractor struct{}

// NewPatternExtractor creates a pattern shaper.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// QueryWindow echoes the window a directive ran against.
type QueryWindow struct {
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	StartDT   string `json:"start_dt"`
	EndDT     string `json:"end_dt"`
}

// TrendView is the undercurrents view.
type TrendView struct {
	PatternCategory string                 `json:"pattern_category"`
	PatternTypes    []string               `json:"pattern_types"`
	DurationHours   float64                `json:"duration_hours"`
	TotalRecords    int                    `json:"total_records"`
	Patterns        []models.PatternRecord `json:"patterns"`
	QueryWindow     QueryWindow            `json:"query_window"`
}

// CapacityView buckets volume-driven patterns by baseline state.
type CapacityView struct {
	TotalRecords int                               `json:"total_records"`
	Stats        map[string]int                    `json:"stats"`
	Patterns     map[string][]models.PatternRecord `json:"patterns"`
	QueryWindow  QueryWindow                       `json:"query_window"`
}

// GroupedView groups patterns by a calendar label.
type GroupedView struct {
	TotalRecords int                               `json:"total_records"`
	Groups       map[string][]models.PatternRecord `json:"groups"`
	Summary      map[string]int                    `json:"summary"`
	QueryWindow  QueryWindow                       `json:"query_window"`
}

// RecurringView splits historical patterns by periodicity.
type RecurringView struct {
	IncidentTimestamp int64                             `json:"incident_timestamp"`
	IncidentDT        string                            `json:"incident_dt"`
	TotalRecords      int                               `json:"total_records"`
	Stats             map[string]int                    `json:"stats"`
	Patterns          map[string][]models.PatternRecord `json:"patterns"`
}

// GeneralView is used when no specialised intent applied.
type GeneralView struct {
	TotalRecords int                    `json:"total_records"`
	Patterns     []models.PatternRecord `json:"patterns"`
	QueryWindow  QueryWindow            `json:"query_window"`
}

// Shape builds the view for a directive's records. The directive's group_by
// decides the grouping; the pattern types decide the trend category.
func (e *PatternExtractor) Shape(d models.QueryDirective, records []models.PatternRecord) any {
	window := queryWindow(d.Window)
	records = nonNilRecords(records)

	switch {
	case d.GroupBy == models.GroupByDayOfWeek:
		return groupRecords(records, window, func(r models.PatternRecord) string {
			if r.DayOfWeek == nil {
				return "Unknown"
			}
			if name, ok := dayNames[*r.DayOfWeek]; ok {
				return name
			}
			return fmt.Sprintf("Day%d", *r.DayOfWeek)
		})
	case d.GroupBy == models.GroupByHourOfDay:
		return groupRecords(records, window, func(r models.PatternRecord) string {
			if r.HourOfDay == nil {
				return "Unknown"
			}
			return HourLabel(*r.HourOfDay)
		})
	case d.Strategy == models.StrategyHistorical:
		split := map[string][]models.PatternRecord{"daily": {}, "weekly": {}}
		for _, r := range records {
			if r.PatternType == "daily" || r.PatternType == "weekly" {
				split[r.PatternType] = append(split[r.PatternType], r)
			}
		}
		return RecurringView{
			IncidentTimestamp: d.Window.StartMS,
			IncidentDT:        window.StartDT,
			TotalRecords:      len(records),
			Stats:             map[string]int{"daily_patterns": len(split["daily"]), "weekly_patterns": len(split["weekly"])},
			Patterns:          split,
		}
	case containsType(d.PatternTypes, "volume_driven"):
		buckets := map[string][]models.PatternRecord{"chronic": {}, "at_risk": {}, "healthy": {}}
		for _, r := range records {
			switch r.BaselineState {
			case stateChronic:
				buckets["chronic"] = append(buckets["chronic"], r)
			case stateAtRisk:
				buckets["at_risk"] = append(buckets["at_risk"], r)
			default:
				buckets["healthy"] = append(buckets["healthy"], r)
			}
		}
		return CapacityView{
			TotalRecords: len(records),
			Stats:        map[string]int{"chronic": len(buckets["chronic"]), "at_risk": len(buckets["at_risk"]), "healthy": len(buckets["healthy"])},
			Patterns:     buckets,
			QueryWindow:  window,
		}
	case containsType(d.PatternTypes, "sudden_spike"), containsType(d.PatternTypes, "drift_up"):
		category := "drift"
		if containsType(d.PatternTypes, "sudden_spike") {
			category = "sudden_changes"
		}
		return TrendView{
			PatternCategory: category,
			PatternTypes:    d.PatternTypes,
			DurationHours:   float64(d.Window.EndMS-d.Window.StartMS) / 3_600_000,
			TotalRecords:    len(records),
			Patterns:        records,
			QueryWindow:     window,
		}
	default:
		return GeneralView{TotalRecords: len(records), Patterns: records, QueryWindow: window}
	}
}

// HourLabel renders an hour bucket as "HH:00-HH:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00-%02d:00", hour, (hour+1)%24)
}

func groupRecords(records []models.PatternRecord, window QueryWindow, key func(models.PatternRecord) string) GroupedView {
	groups := make(map[string][]models.PatternRecord)
	summary := make(map[string]int)
	for _, r := range records {
		k := key(r)
		groups[k] = append(groups[k], r)
		summary[k]++
	}
	return GroupedView{TotalRecords: len(records), Groups: groups, Summary: summary, QueryWindow: window}
}

func queryWindow(w models.TimeWindow) QueryWindow {
	return QueryWindow{
		StartTime: w.StartMS,
		EndTime:   w.EndMS,
		StartDT:   w.Start().Format("2006-01-02 15:04:05"),
		EndDT:     w.End().Format("2006-01-02 15:04:05"),
	}
}

func containsType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func nonNilRecords(records []models.PatternRecord) []models.PatternRecord {
	if records == nil {
		return []models.PatternRecord{}
	}
	return records
}

package models

// TimeFilterStrategy selects how a pattern record's timestamps are matched against the window.
type TimeFilterStrategy string

const (
	// StrategyStrict keeps records whose detection time falls inside the window.
	StrategyStrict TimeFilterStrategy = "STRICT"
	// StrategyOverlap keeps records whose [first_seen, last_seen] interval intersects the window.
	StrategyOverlap TimeFilterStrategy = "OVERLAP"
	// StrategyHistorical keeps records whose interval ended before the window started.
	StrategyHistorical TimeFilterStrategy = "HISTORICAL"
)

// GroupBy selects an optional grouping column for pattern records.
type GroupBy string

const (
	GroupByNone      GroupBy = "NONE"
	GroupByDayOfWeek GroupBy = "DAY_OF_WEEK"
	GroupByHourOfDay GroupBy = "HOUR_OF_DAY"
)

// Disposition tells the aggregator whether a directive reaches an adapter.
type Disposition int

const (
	DispositionExecute Disposition = iota
	DispositionNotImplemented
	DispositionMissingService
)

func (d Disposition) String() string {
	switch d {
	case DispositionNotImplemented:
		return "not_implemented"
	case DispositionMissingService:
		return "missing_service"
	default:
		return "execute"
	}
}

// QueryDirective is one specialised query against one data source.
type QueryDirective struct {
	Function     string
	Intent       IntentID
	PatternTypes []string
	Strategy     TimeFilterStrategy
	GroupBy      GroupBy
	Window       TimeWindow
	ServiceID    *int64
	Disposition  Disposition
	// Comparison is the resolved comparison window, when the question named one.
	Comparison *TimeWindow
}

// DispatchPlan maps each data source to the ordered directives it must run.
type DispatchPlan struct {
	Sources    []DataSourceID
	Directives map[DataSourceID][]QueryDirective
}

// Add appends a directive for source, registering the source on first use.
func (p *DispatchPlan) Add(source DataSourceID, d QueryDirective) {
	if p.Directives == nil {
		p.Directives = make(map[DataSourceID][]QueryDirective)
	}
	if _, ok := p.Directives[source]; !ok {
		p.Sources = append(p.Sources, source)
	}
	p.Directives[source] = append(p.Directives[source], d)
}

// For returns the directives planned for source.
func (p DispatchPlan) For(source DataSourceID) []QueryDirective {
	return p.Directives[source]
}

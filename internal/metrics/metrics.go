package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels questions answered with success=true.
	OutcomeSuccess = "success"
	// OutcomeError labels questions that failed classification or time resolution.
	OutcomeError = "error"

	// MatchFound labels service names resolved to a catalog entry.
	MatchFound = "found"
	// MatchMissing labels service names with no candidate above the threshold.
	MatchMissing = "missing"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_slo",
			Name:      "queries_total",
			Help:      "Total number of questions handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_slo",
			Name:      "query_seconds",
			Help:      "End-to-end question latency in seconds, classifier included.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	directivesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_slo",
			Name:      "directives_total",
			Help:      "Directives resolved, partitioned by data source and status.",
		},
		[]string{"source", "status"},
	)

	directiveDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mirador_slo",
			Name:      "directive_seconds",
			Help:      "Adapter call latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	serviceMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_slo",
			Name:      "service_matches_total",
			Help:      "Service name resolutions, partitioned by result.",
		},
		[]string{"result"},
	)
)

// Register attaches mirador-slo collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		queriesTotal,
		queryDurationSeconds,
		directivesTotal,
		directiveDurationSeconds,
		serviceMatchesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveQuery records a question duration and outcome label.
func ObserveQuery(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	queriesTotal.WithLabelValues(label).Inc()
	queryDurationSeconds.Observe(clamp(duration).Seconds())
}

// ObserveDirective records one directive outcome. Durations are only observed
// for directives that reached an adapter.
func ObserveDirective(source, status string, duration time.Duration, called bool) {
	directivesTotal.WithLabelValues(source, status).Inc()
	if called {
		directiveDurationSeconds.WithLabelValues(source).Observe(clamp(duration).Seconds())
	}
}

// ObserveServiceMatch records whether a service name resolved.
func ObserveServiceMatch(found bool) {
	if found {
		serviceMatchesTotal.WithLabelValues(MatchFound).Inc()
		return
	}
	serviceMatchesTotal.WithLabelValues(MatchMissing).Inc()
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

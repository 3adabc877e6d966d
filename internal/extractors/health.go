package extractors

import (
	"math"
	"slices"

	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/utils"
)

// HealthView selects which buckets a health report exposes.
type HealthView string

const (
	// ViewCurrentHealth reports unhealthy and at-risk SLOs of both categories across the application.
	ViewCurrentHealth HealthView = "current_health"
	// ViewServiceHealth reports every bucket for one service.
	ViewServiceHealth HealthView = "service_health"
	// ViewErrorBudget reports error-budget SLOs only, healthy ones included.
	ViewErrorBudget HealthView = "error_budget_status"
)

const defaultApplicationName = "unknown"

// HealthExtractor turns raw statistics API transactions into a bucketed health report.
type HealthExtractor struct{}

// NewHealthExtractor creates a health report builder.
func NewHealthExtractor() *HealthExtractor {
	return &HealthExtractor{}
}

type buckets struct {
	unhealthy []models.ServiceHealth
	atRisk    []models.ServiceHealth
	healthy   []models.ServiceHealth
}

func (b *buckets) add(s models.ServiceHealth) {
	switch s.Health {
	case models.HealthUnhealthy:
		b.unhealthy = append(b.unhealthy, s)
	case models.HealthAtRisk:
		b.atRisk = append(b.atRisk, s)
	default:
		b.healthy = append(b.healthy, s)
	}
}

func (b *buckets) sort() {
	byVolume := func(a, c models.ServiceHealth) int {
		switch {
		case a.Volume.TotalRequests > c.Volume.TotalRequests:
			return -1
		case a.Volume.TotalRequests < c.Volume.TotalRequests:
			return 1
		default:
			return 0
		}
	}
	slices.SortStableFunc(b.unhealthy, byVolume)
	slices.SortStableFunc(b.atRisk, byVolume)
	slices.SortStableFunc(b.healthy, byVolume)
}

// Build shapes transactions for view. When serviceID is set, records for other
// services are discarded.
func (e *HealthExtractor) Build(view HealthView, txs []models.Transaction, window models.TimeWindow, serviceID *int64) models.HealthReport {
	var eb, response buckets
	considered := 0
	for _, tx := range txs {
		if serviceID != nil && tx.TransactionID != *serviceID {
			continue
		}
		switch tx.DataCategory {
		case models.CategoryErrorBudget:
			eb.add(toServiceHealth(tx, tx.EBHealth))
		case models.CategoryResponse:
			if view == ViewErrorBudget {
				continue
			}
			response.add(toServiceHealth(tx, tx.ResponseHealth))
		default:
			continue
		}
		considered++
	}
	eb.sort()
	response.sort()

	report := models.HealthReport{
		Function:    string(view),
		Application: applicationName(txs),
		Window: models.ReportWindow{
			Start:       utils.DateString(window.StartMS),
			End:         utils.DateString(window.EndMS),
			Granularity: window.Granularity,
		},
		Stats: models.HealthStats{
			TotalSLOs:         considered,
			UnhealthySLO:      len(eb.unhealthy) + len(response.unhealthy),
			AtRiskSLO:         len(eb.atRisk) + len(response.atRisk),
			HealthySLO:        len(eb.healthy) + len(response.healthy),
			EBUnhealthy:       len(eb.unhealthy),
			EBAtRisk:          len(eb.atRisk),
			EBHealthy:         len(eb.healthy),
			ResponseUnhealthy: len(response.unhealthy),
			ResponseAtRisk:    len(response.atRisk),
			ResponseHealthy:   len(response.healthy),
		},
		UnhealthyEB: nonNil(eb.unhealthy),
		AtRiskEB:    nonNil(eb.atRisk),
	}

	switch view {
	case ViewServiceHealth:
		report.HealthyEB = eb.healthy
		report.UnhealthyResponse = response.unhealthy
		report.AtRiskResponse = response.atRisk
	case ViewErrorBudget:
		report.HealthyEB = eb.healthy
	default:
		report.UnhealthyResponse = response.unhealthy
		report.AtRiskResponse = response.atRisk
	}
	return report
}

func toServiceHealth(tx models.Transaction, health string) models.ServiceHealth {
	if health == "" {
		health = models.HealthHealthy
	}
	return models.ServiceHealth{
		ServiceID: tx.TransactionID,
		Service:   tx.TransactionName,
		Health:    health,
		Success: models.SuccessStats{
			Rate:     round2(tx.SuccessRate),
			Target:   tx.ShortTargetSLO,
			Breached: tx.EBBreached,
		},
		Latency: models.LatencyStats{
			P95:           round2(tx.AvgPercentiles["95.0"]),
			TargetSeconds: tx.ResponseSLO,
			TargetPercent: tx.ResponseTargetPercent,
			BreachCount:   int64(tx.ResponseBreachCount),
		},
		Volume: models.VolumeStats{
			TotalRequests: int64(tx.TotalCount),
			Errors:        int64(tx.ErrorCount),
		},
		Risk: models.RiskIndicator{BurnRate: round2(tx.BurnRate)},
	}
}

func applicationName(txs []models.Transaction) string {
	for _, tx := range txs {
		if tx.ApplicationName != "" {
			return tx.ApplicationName
		}
	}
	return defaultApplicationName
}

func nonNil(s []models.ServiceHealth) []models.ServiceHealth {
	if s == nil {
		return []models.ServiceHealth{}
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

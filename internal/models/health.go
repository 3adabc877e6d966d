package models

// HealthQuery is the point-metrics adapter input.
type HealthQuery struct {
	AppID     int64
	StartMS   int64
	EndMS     int64
	Index     Granularity
	ServiceID *int64
}

// Transaction is one raw record from the error-budget statistics API.
type Transaction struct {
	TransactionID         int64              `json:"transactionId"`
	TransactionName       string             `json:"transactionName"`
	ApplicationName       string             `json:"applicationName"`
	Index                 string             `json:"index"`
	DataCategory          string             `json:"dataCategory"`
	EBHealth              string             `json:"ebHealth"`
	ResponseHealth        string             `json:"responseHealth"`
	SuccessRate           float64            `json:"successRate"`
	ShortTargetSLO        float64            `json:"shortTargetSLO"`
	EBBreached            bool               `json:"ebBreached"`
	AvgPercentiles        map[string]float64 `json:"avgPercentiles"`
	ResponseSLO           float64            `json:"responseSlo"`
	ResponseTargetPercent float64            `json:"responseTargetPercent"`
	ResponseBreachCount   float64            `json:"responseBreachCount"`
	TotalCount            float64            `json:"totalCount"`
	ErrorCount            float64            `json:"errorCount"`
	BurnRate              float64            `json:"burnRate"`
}

// Health states reported by the statistics API.
const (
	HealthUnhealthy = "UNHEALTHY"
	HealthAtRisk    = "AT_RISK"
	HealthHealthy   = "HEALTHY"
)

// Data categories reported by the statistics API.
const (
	CategoryErrorBudget = "EB"
	CategoryResponse    = "RESPONSE"
)

// ServiceHealth is the per-service record handed to consumers.
type ServiceHealth struct {
	ServiceID int64         `json:"service_id"`
	Service   string        `json:"service"`
	Health    string        `json:"health"`
	Success   SuccessStats  `json:"success"`
	Latency   LatencyStats  `json:"latency"`
	Volume    VolumeStats   `json:"volume"`
	Risk      RiskIndicator `json:"risk"`
}

type SuccessStats struct {
	Rate     float64 `json:"rate"`
	Target   float64 `json:"target"`
	Breached bool    `json:"breached"`
}

type LatencyStats struct {
	P95           float64 `json:"p95"`
	TargetSeconds float64 `json:"target_seconds"`
	TargetPercent float64 `json:"target_percent"`
	BreachCount   int64   `json:"breach_count"`
}

type VolumeStats struct {
	TotalRequests int64 `json:"total_requests"`
	Errors        int64 `json:"errors"`
}

type RiskIndicator struct {
	BurnRate float64 `json:"burn_rate"`
}

// HealthReport is the shaped point-metrics payload.
type HealthReport struct {
	Function          string          `json:"function"`
	Application       string          `json:"application"`
	Window            ReportWindow    `json:"window"`
	Stats             HealthStats     `json:"stats"`
	UnhealthyEB       []ServiceHealth `json:"unhealthy_eb"`
	AtRiskEB          []ServiceHealth `json:"at_risk_eb"`
	HealthyEB         []ServiceHealth `json:"healthy_eb,omitempty"`
	UnhealthyResponse []ServiceHealth `json:"unhealthy_response,omitempty"`
	AtRiskResponse    []ServiceHealth `json:"at_risk_response,omitempty"`
}

// ReportWindow describes the window in calendar dates.
type ReportWindow struct {
	Start       string      `json:"start"`
	End         string      `json:"end"`
	Granularity Granularity `json:"granularity"`
}

// HealthStats counts SLOs by category and state.
type HealthStats struct {
	TotalSLOs         int `json:"total_slos"`
	UnhealthySLO      int `json:"unhealthy_slo"`
	AtRiskSLO         int `json:"at_risk_slo"`
	HealthySLO        int `json:"healthy_slo"`
	EBUnhealthy       int `json:"eb_unhealthy"`
	EBAtRisk          int `json:"eb_at_risk"`
	EBHealthy         int `json:"eb_healthy"`
	ResponseUnhealthy int `json:"response_unhealthy"`
	ResponseAtRisk    int `json:"response_at_risk"`
	ResponseHealthy   int `json:"response_healthy"`
}

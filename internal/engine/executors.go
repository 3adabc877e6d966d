package engine

import (
	"context"
	"fmt"

	"github.com/miradorstack/mirador-slo/internal/extractors"
	"github.com/miradorstack/mirador-slo/internal/models"
)

// PatternAdapter reads learned behaviour patterns.
type PatternAdapter interface {
	QueryPatterns(ctx context.Context, q models.PatternQuery) ([]models.PatternRecord, error)
}

// PointMetricsAdapter reads point-in-time SLO statistics.
type PointMetricsAdapter interface {
	FetchTransactions(ctx context.Context, q models.HealthQuery) ([]models.Transaction, error)
}

// PatternExecutor runs pattern directives and merges them into one payload.
type PatternExecutor struct {
	adapter PatternAdapter
	appID   int64
	shaper  *extractors.PatternExtractor
}

// NewPatternExecutor binds a pattern adapter to an application.
func NewPatternExecutor(adapter PatternAdapter, appID int64) *PatternExecutor {
	return &PatternExecutor{adapter: adapter, appID: appID, shaper: extractors.NewPatternExtractor()}
}

type patternBatch struct {
	directive models.QueryDirective
	records   []models.PatternRecord
}

// PatternPayload is the merged pattern-source payload.
type PatternPayload struct {
	TotalRecords int                    `json:"total_records"`
	Patterns     []models.PatternRecord `json:"patterns"`
	ByIntent     map[string]any         `json:"by_intent"`
	Directives   []DirectiveSummary     `json:"directives"`
}

// Execute runs one directive.
func (e *PatternExecutor) Execute(ctx context.Context, d models.QueryDirective) (any, error) {
	if e.adapter == nil {
		return nil, &models.AdapterError{Source: models.SourcePatterns, Function: d.Function, Err: fmt.Errorf("pattern adapter not configured")}
	}
	records, err := e.adapter.QueryPatterns(ctx, models.PatternQuery{
		AppID:        e.appID,
		PatternTypes: d.PatternTypes,
		StartMS:      d.Window.StartMS,
		EndMS:        d.Window.EndMS,
		Strategy:     d.Strategy,
		GroupBy:      d.GroupBy,
		ServiceID:    d.ServiceID,
	})
	if err != nil {
		return nil, &models.AdapterError{Source: models.SourcePatterns, Function: d.Function, Err: err}
	}
	return patternBatch{directive: d, records: records}, nil
}

// Merge concatenates records in plan order and shapes each directive's view
// under its intent.
func (e *PatternExecutor) Merge(outcomes []DirectiveOutcome) models.SourceResult {
	return MergeOutcomes(outcomes, func(ok []DirectiveOutcome) any {
		payload := PatternPayload{
			Patterns:   []models.PatternRecord{},
			ByIntent:   make(map[string]any, len(ok)),
			Directives: Summarize(outcomes, countBatch),
		}
		for _, o := range ok {
			batch, isBatch := o.Payload.(patternBatch)
			if !isBatch {
				continue
			}
			payload.Patterns = append(payload.Patterns, batch.records...)
			payload.ByIntent[intentKey(batch.directive)] = e.shaper.Shape(batch.directive, batch.records)
		}
		payload.TotalRecords = len(payload.Patterns)
		return payload
	})
}

func countBatch(p any) int {
	if batch, ok := p.(patternBatch); ok {
		return len(batch.records)
	}
	return 0
}

func intentKey(d models.QueryDirective) string {
	if d.Intent == "" {
		return "GENERAL"
	}
	return string(d.Intent)
}

// PointMetricsExecutor runs the health directive against the statistics API.
type PointMetricsExecutor struct {
	adapter PointMetricsAdapter
	appID   int64
	health  *extractors.HealthExtractor
}

// NewPointMetricsExecutor binds a statistics adapter to an application.
func NewPointMetricsExecutor(adapter PointMetricsAdapter, appID int64) *PointMetricsExecutor {
	return &PointMetricsExecutor{adapter: adapter, appID: appID, health: extractors.NewHealthExtractor()}
}

type healthBatch struct {
	report models.HealthReport
}

// Execute fetches transactions for the directive's window and builds the report.
func (e *PointMetricsExecutor) Execute(ctx context.Context, d models.QueryDirective) (any, error) {
	if e.adapter == nil {
		return nil, &models.AdapterError{Source: models.SourceStatsAPI, Function: d.Function, Err: fmt.Errorf("statistics adapter not configured")}
	}
	txs, err := e.adapter.FetchTransactions(ctx, models.HealthQuery{
		AppID:     e.appID,
		StartMS:   d.Window.StartMS,
		EndMS:     d.Window.EndMS,
		Index:     d.Window.Granularity,
		ServiceID: d.ServiceID,
	})
	if err != nil {
		return nil, &models.AdapterError{Source: models.SourceStatsAPI, Function: d.Function, Err: err}
	}
	report := e.health.Build(healthView(d.Function), txs, d.Window, d.ServiceID)
	return healthBatch{report: report}, nil
}

// Merge returns the report of the single point-metrics directive.
func (e *PointMetricsExecutor) Merge(outcomes []DirectiveOutcome) models.SourceResult {
	return MergeOutcomes(outcomes, func(ok []DirectiveOutcome) any {
		if batch, isBatch := ok[0].Payload.(healthBatch); isBatch {
			return batch.report
		}
		return ok[0].Payload
	})
}

func healthView(function string) extractors.HealthView {
	switch function {
	case FunctionServiceHealth:
		return extractors.ViewServiceHealth
	case FunctionErrorBudgetStatus:
		return extractors.ViewErrorBudget
	default:
		return extractors.ViewCurrentHealth
	}
}

package engine

import (
	"context"
	"sync"

	"github.com/miradorstack/mirador-slo/internal/models"
)

type fakePatternAdapter struct {
	mu      sync.Mutex
	byType  map[string][]models.PatternRecord
	err     error
	block   chan struct{}
	queries []models.PatternQuery
}

func (f *fakePatternAdapter) QueryPatterns(ctx context.Context, q models.PatternQuery) ([]models.PatternRecord, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []models.PatternRecord
	if len(q.PatternTypes) == 0 {
		out = append(out, f.byType["*"]...)
	}
	for _, pt := range q.PatternTypes {
		out = append(out, f.byType[pt]...)
	}
	return out, nil
}

func (f *fakePatternAdapter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeStatsAdapter struct {
	mu      sync.Mutex
	txs     []models.Transaction
	err     error
	panics  bool
	queries []models.HealthQuery
}

func (f *fakeStatsAdapter) FetchTransactions(ctx context.Context, q models.HealthQuery) ([]models.Transaction, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.panics {
		panic("decoder exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.txs, nil
}

func (f *fakeStatsAdapter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeClassifier struct {
	result models.Classification
	err    error
	seen   []string
}

func (f *fakeClassifier) Classify(ctx context.Context, query string) (models.Classification, error) {
	f.seen = append(f.seen, query)
	return f.result, f.err
}

func strPtr(s string) *string { return &s }

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		{TransactionID: 101, TransactionName: "dashboard-stats", ApplicationName: "WMPlatform", DataCategory: models.CategoryErrorBudget, EBHealth: models.HealthUnhealthy, TotalCount: 50},
		{TransactionID: 102, TransactionName: "checkout", ApplicationName: "WMPlatform", DataCategory: models.CategoryErrorBudget, EBHealth: models.HealthUnhealthy, TotalCount: 900},
		{TransactionID: 102, TransactionName: "checkout", ApplicationName: "WMPlatform", DataCategory: models.CategoryResponse, ResponseHealth: models.HealthAtRisk, TotalCount: 900},
		{TransactionID: 104, TransactionName: "payments", ApplicationName: "WMPlatform", DataCategory: models.CategoryErrorBudget, EBHealth: models.HealthHealthy, TotalCount: 10},
	}
}

package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/miradorstack/mirador-slo/internal/metrics"
	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/tables"
)

// Classifier turns a question into intents and raw entities.
type Classifier interface {
	Classify(ctx context.Context, query string) (models.Classification, error)
}

// Pipeline answers one question end to end: classify, expand, resolve, plan, aggregate.
type Pipeline struct {
	logger     *slog.Logger
	classifier Classifier
	tables     *tables.Tables
	resolver   *TimeRangeResolver
	matcher    *ServiceMatcher
	aggregator *Aggregator
	appID      int64
	now        func() time.Time
	tracer     trace.Tracer
}

// NewPipeline constructs a query pipeline. A nil resolver, matcher or
// aggregator gets a default built from tbl.
func NewPipeline(
	logger *slog.Logger,
	classifier Classifier,
	tbl *tables.Tables,
	resolver *TimeRangeResolver,
	matcher *ServiceMatcher,
	aggregator *Aggregator,
	appID int64,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = NewTimeRangeResolver(nil)
	}
	if matcher == nil {
		matcher = NewServiceMatcher(tbl.Catalog().Services, DefaultMatchThreshold, 0)
	}
	if aggregator == nil {
		aggregator = NewAggregator(logger, DefaultAdapterTimeout, nil)
	}
	return &Pipeline{
		logger:     logger,
		classifier: classifier,
		tables:     tbl,
		resolver:   resolver,
		matcher:    matcher,
		aggregator: aggregator,
		appID:      appID,
		now:        time.Now,
		tracer:     otel.Tracer("github.com/miradorstack/mirador-slo/internal/engine"),
	}
}

// WithClock replaces the wall clock used to anchor relative time expressions.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	if now != nil {
		p.now = now
	}
	return p
}

// Matcher exposes the service matcher built for the pipeline's catalog.
func (p *Pipeline) Matcher() *ServiceMatcher { return p.matcher }

// Resolver exposes the pipeline's time range resolver.
func (p *Pipeline) Resolver() *TimeRangeResolver { return p.resolver }

// Ask answers a question. The returned response is always well formed; an
// error is returned alongside it only when classification or time resolution
// failed, in which case Success is false.
func (p *Pipeline) Ask(ctx context.Context, req models.QueryRequest) (models.AggregatedResponse, error) {
	started := time.Now()
	requestID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "slo.query", trace.WithAttributes(attribute.String("slo.request_id", requestID)))
	defer span.End()

	logger := p.logger.With(slog.String("request_id", requestID))

	resp, err := p.ask(ctx, logger, req)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("query failed", slog.Any("error", err))
	}
	metrics.ObserveQuery(time.Since(started), outcome)
	logger.Info("query answered",
		slog.Bool("success", resp.Success),
		slog.Int("sources", len(resp.Data)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return resp, err
}

func (p *Pipeline) ask(ctx context.Context, logger *slog.Logger, req models.QueryRequest) (models.AggregatedResponse, error) {
	resp := models.AggregatedResponse{
		Query:           req.Query,
		DataSourcesUsed: []models.DataSourceID{},
		Data:            map[models.DataSourceID]models.SourceResult{},
		Metadata:        models.ResponseMetadata{AppID: p.appID},
	}
	if p.classifier == nil {
		return p.fail(resp, &models.ClassificationError{Err: errors.New("classifier not configured")})
	}

	cls, err := p.classifier.Classify(ctx, req.Query)
	if err != nil {
		var clsErr *models.ClassificationError
		if !errors.As(err, &clsErr) {
			err = &models.ClassificationError{Err: err}
		}
		return p.fail(resp, err)
	}
	if len(cls.Unrecognized) > 0 {
		logger.Debug("dropped unrecognised secondary intents", slog.Any("intents", cls.Unrecognized))
	}

	expanded := Expand(cls.Primary, cls.Secondary, p.tables.EnrichmentRules(), p.tables.IntentSources())
	resp.Classification = &models.ClassificationView{
		PrimaryIntent:    expanded.Primary,
		SecondaryIntents: expanded.Secondary,
		EnrichedIntents:  expanded.Enriched.Sorted(),
		Entities:         cls.Entities,
	}
	resp.Metadata.EnrichmentApplied = expanded.EnrichmentApplied

	nowMS := p.now().UnixMilli()
	window, err := p.resolver.Resolve(cls.Entities.TimeExpression, nowMS)
	if err != nil {
		return p.fail(resp, err)
	}
	resp.TimeResolution = &models.TimeResolution{
		StartTime: window.StartMS,
		EndTime:   window.EndMS,
		Index:     window.Granularity,
		TimeRange: window.Expression,
	}

	var comparison *models.TimeWindow
	if expr := cls.Entities.ComparisonExpression; expr != nil && strings.TrimSpace(*expr) != "" {
		cw, err := p.resolver.Resolve(*expr, nowMS)
		if err != nil {
			logger.Warn("comparison range not understood", slog.String("expression", *expr), slog.Any("error", err))
		} else {
			comparison = &cw
		}
	}

	serviceName := strings.TrimSpace(req.Service)
	if serviceName == "" && cls.Entities.ServiceName != nil {
		serviceName = strings.TrimSpace(*cls.Entities.ServiceName)
	}
	var serviceID *int64
	if serviceName != "" {
		resp.Metadata.Service = &serviceName
		match, err := p.matcher.Resolve(serviceName)
		metrics.ObserveServiceMatch(err == nil)
		if err != nil {
			logger.Warn("service not found in catalog", slog.String("service", serviceName))
		} else {
			id := match.Candidate.ServiceID
			serviceID = &id
			resp.ServiceMatch = &match
			logger.Debug("service matched",
				slog.String("service", serviceName),
				slog.String("candidate", match.Candidate.Name),
				slog.Float64("score", match.Score),
			)
		}
	}

	plan := Plan(expanded.Enriched, expanded.DataSources, window, serviceID)
	if comparison != nil {
		attachComparison(plan, *comparison)
	}

	resp.Data = p.aggregator.Aggregate(ctx, plan)
	for _, source := range plan.Sources {
		if _, ok := resp.Data[source]; ok {
			resp.DataSourcesUsed = append(resp.DataSourcesUsed, source)
		}
	}
	resp.Success = true
	return resp, nil
}

func (p *Pipeline) fail(resp models.AggregatedResponse, err error) (models.AggregatedResponse, error) {
	resp.Success = false
	resp.Error = err.Error()
	return resp, err
}

func attachComparison(plan models.DispatchPlan, comparison models.TimeWindow) {
	for _, source := range plan.Sources {
		directives := plan.Directives[source]
		for i := range directives {
			if directives[i].Function == FunctionHistoricalComparison {
				cw := comparison
				directives[i].Comparison = &cw
			}
		}
	}
}

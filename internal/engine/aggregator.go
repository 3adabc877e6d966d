package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/mirador-slo/internal/metrics"
	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/utils"
)

const (
	// DefaultAdapterTimeout bounds a single adapter call.
	DefaultAdapterTimeout = 30 * time.Second

	reasonMissingService = "service name required for this intent"
	statusUnderProgress  = "under_progress"
)

var errAdapterTimeout = errors.New(models.ReasonTimeout)

// SourceExecutor runs directives against one data source and folds their
// outcomes into the source's response entry.
type SourceExecutor interface {
	Execute(ctx context.Context, d models.QueryDirective) (any, error)
	Merge(outcomes []DirectiveOutcome) models.SourceResult
}

// DirectiveOutcome is the result of one directive.
type DirectiveOutcome struct {
	Directive models.QueryDirective
	Status    models.SourceStatus
	Reason    string
	Payload   any
	Elapsed   time.Duration
}

// Aggregator fans directives out to source executors and collects one result per source.
type Aggregator struct {
	logger    *slog.Logger
	executors map[models.DataSourceID]SourceExecutor
	timeout   time.Duration
	limit     int
	tracer    trace.Tracer
}

// NewAggregator wires executors keyed by data source. A zero timeout selects DefaultAdapterTimeout.
func NewAggregator(logger *slog.Logger, timeout time.Duration, executors map[models.DataSourceID]SourceExecutor) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultAdapterTimeout
	}
	registered := make(map[models.DataSourceID]SourceExecutor, len(executors))
	for source, exec := range executors {
		if exec != nil {
			registered[source] = exec
		}
	}
	return &Aggregator{
		logger:    logger,
		executors: registered,
		timeout:   timeout,
		tracer:    otel.Tracer("github.com/miradorstack/mirador-slo/internal/engine"),
	}
}

// WithConcurrency bounds how many adapter calls run at once. Zero or a negative
// limit leaves fan-out unbounded.
func (a *Aggregator) WithConcurrency(limit int) *Aggregator {
	a.limit = limit
	return a
}

type slot struct {
	source models.DataSourceID
	index  int
}

// Aggregate executes every directive of the plan concurrently and returns one
// entry per planned source. Adapter failures never escape; they are recorded
// on the source entry.
func (a *Aggregator) Aggregate(ctx context.Context, plan models.DispatchPlan) map[models.DataSourceID]models.SourceResult {
	outcomes := make(map[models.DataSourceID][]DirectiveOutcome, len(plan.Sources))
	var slots []slot
	for _, source := range plan.Sources {
		directives := plan.For(source)
		outcomes[source] = make([]DirectiveOutcome, len(directives))
		for i := range directives {
			slots = append(slots, slot{source: source, index: i})
		}
	}

	var g errgroup.Group
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}
	// Directive failures are recorded as outcomes, so Wait only marks completion.
	for _, s := range slots {
		s := s
		exec := a.executors[s.source]
		d := plan.For(s.source)[s.index]
		results := outcomes[s.source]
		g.Go(func() error {
			results[s.index] = a.run(ctx, s.source, exec, d)
			return nil
		})
	}
	_ = g.Wait()

	data := make(map[models.DataSourceID]models.SourceResult, len(plan.Sources))
	for _, source := range plan.Sources {
		if exec, ok := a.executors[source]; ok {
			data[source] = exec.Merge(outcomes[source])
			continue
		}
		data[source] = MergeOutcomes(outcomes[source], nil)
	}
	return data
}

func (a *Aggregator) run(ctx context.Context, source models.DataSourceID, exec SourceExecutor, d models.QueryDirective) DirectiveOutcome {
	out := DirectiveOutcome{Directive: d}
	switch {
	case d.Disposition == models.DispositionMissingService:
		out.Status = models.StatusMissingService
		out.Reason = reasonMissingService
	case d.Disposition == models.DispositionNotImplemented, exec == nil:
		out.Status = models.StatusNotImplemented
		out.Payload = pendingPayload(d)
	}
	if out.Status != "" {
		metrics.ObserveDirective(string(source), string(out.Status), 0, false)
		return out
	}

	ctx, span := a.tracer.Start(ctx, "slo.directive", trace.WithAttributes(
		attribute.String("slo.source", string(source)),
		attribute.String("slo.function", d.Function),
		attribute.String("slo.intent", string(d.Intent)),
	))
	defer span.End()

	start := time.Now()
	payload, err := a.call(ctx, exec, d)
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Status = models.StatusError
		out.Reason = failureReason(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, out.Reason)
		a.logger.Warn("directive failed",
			slog.String("source", string(source)),
			slog.String("function", d.Function),
			slog.Duration("elapsed", out.Elapsed),
			slog.Any("error", err),
		)
	} else {
		out.Status = models.StatusOK
		out.Payload = payload
	}
	metrics.ObserveDirective(string(source), string(out.Status), out.Elapsed, true)
	return out
}

type callResult struct {
	payload any
	err     error
}

// call runs one adapter call under the per-call deadline. A call that outlives
// its deadline is abandoned; its late result is dropped.
func (a *Aggregator) call(ctx context.Context, exec SourceExecutor, d models.QueryDirective) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("executor panic: %v", r)}
			}
		}()
		payload, err := exec.Execute(callCtx, d)
		done <- callResult{payload: payload, err: err}
	}()

	select {
	case res := <-done:
		return res.payload, res.err
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, errAdapterTimeout
		}
		return nil, callCtx.Err()
	}
}

func failureReason(err error) string {
	if errors.Is(err, errAdapterTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return models.ReasonTimeout
	}
	return utils.Reason(err)
}

func pendingPayload(d models.QueryDirective) map[string]any {
	payload := map[string]any{
		"function": d.Function,
		"status":   statusUnderProgress,
	}
	if d.Intent != "" {
		payload["intent"] = d.Intent
	}
	switch d.Function {
	case FunctionHistoricalComparison:
		payload["message"] = "historical comparison is not implemented yet"
		if d.Comparison != nil {
			payload["comparison_window"] = timeResolution(*d.Comparison)
		}
	case FunctionRiskPrediction:
		payload["message"] = "risk prediction is not implemented yet"
	default:
		payload["message"] = "no adapter is available for this data source"
	}
	return payload
}

// DirectiveSummary describes one directive inside a merged source payload.
type DirectiveSummary struct {
	Function  string              `json:"function"`
	Intent    models.IntentID     `json:"intent,omitempty"`
	Status    models.SourceStatus `json:"status"`
	Error     string              `json:"error,omitempty"`
	Records   *int                `json:"records,omitempty"`
	Detail    any                 `json:"detail,omitempty"`
	ElapsedMS int64               `json:"elapsed_ms"`
}

// Summarize lists outcomes in plan order. counter, when set, reports the
// record count of an OK payload.
func Summarize(outcomes []DirectiveOutcome, counter func(any) int) []DirectiveSummary {
	summaries := make([]DirectiveSummary, 0, len(outcomes))
	for _, o := range outcomes {
		s := DirectiveSummary{
			Function:  o.Directive.Function,
			Intent:    o.Directive.Intent,
			Status:    o.Status,
			Error:     o.Reason,
			ElapsedMS: o.Elapsed.Milliseconds(),
		}
		switch {
		case o.Status == models.StatusOK && counter != nil:
			n := counter(o.Payload)
			s.Records = &n
		case o.Status == models.StatusNotImplemented:
			s.Detail = o.Payload
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// MergeOutcomes folds directive outcomes into one source entry. The source is
// OK when any directive succeeded; otherwise the first error wins, then
// MISSING_SERVICE, then NOT_IMPLEMENTED. combine builds the OK payload from the
// successful outcomes; a nil combine keeps the directive summaries only.
func MergeOutcomes(outcomes []DirectiveOutcome, combine func(ok []DirectiveOutcome) any) models.SourceResult {
	var (
		ok             []DirectiveOutcome
		firstError     *DirectiveOutcome
		missingService *DirectiveOutcome
	)
	for i := range outcomes {
		switch outcomes[i].Status {
		case models.StatusOK:
			ok = append(ok, outcomes[i])
		case models.StatusError:
			if firstError == nil {
				firstError = &outcomes[i]
			}
		case models.StatusMissingService:
			if missingService == nil {
				missingService = &outcomes[i]
			}
		}
	}

	switch {
	case len(ok) > 0:
		if combine == nil {
			return models.OK(map[string]any{"directives": Summarize(outcomes, nil)})
		}
		return models.OK(combine(ok))
	case firstError != nil:
		return models.SourceResult{
			Status:  models.StatusError,
			Reason:  firstError.Reason,
			Payload: map[string]any{"directives": Summarize(outcomes, nil)},
		}
	case missingService != nil:
		return models.SourceResult{Status: models.StatusMissingService, Reason: missingService.Reason}
	default:
		return models.SourceResult{
			Status:  models.StatusNotImplemented,
			Payload: map[string]any{"directives": Summarize(outcomes, nil)},
		}
	}
}

func timeResolution(w models.TimeWindow) models.TimeResolution {
	return models.TimeResolution{
		StartTime: w.StartMS,
		EndTime:   w.EndMS,
		Index:     w.Granularity,
		TimeRange: w.Expression,
	}
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-slo/internal/api"
	"github.com/miradorstack/mirador-slo/internal/engine"
	"github.com/miradorstack/mirador-slo/internal/metrics"
	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/utils"
)

// QueryPipeline answers one question end to end.
type QueryPipeline interface {
	Ask(ctx context.Context, req models.QueryRequest) (models.AggregatedResponse, error)
}

// QueryService is the transport-neutral facade shared by the gRPC, MCP and
// CLI surfaces.
type QueryService struct {
	api.UnimplementedSLOOrchestratorServer

	logger    *slog.Logger
	pipeline  QueryPipeline
	matcher   *engine.ServiceMatcher
	resolver  *engine.TimeRangeResolver
	now       func() time.Time
	latencies *utils.LatencyTracker
}

// NewQueryService constructs the facade. A nil resolver gets the default one.
func NewQueryService(logger *slog.Logger, pipeline QueryPipeline, matcher *engine.ServiceMatcher, resolver *engine.TimeRangeResolver) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = engine.NewTimeRangeResolver(nil)
	}
	return &QueryService{
		logger:    logger,
		pipeline:  pipeline,
		matcher:   matcher,
		resolver:  resolver,
		now:       time.Now,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Query runs the pipeline. Classification and time-range failures come back
// as a response with Success=false rather than as an error; the error return
// is reserved for a missing pipeline.
func (s *QueryService) Query(ctx context.Context, req models.QueryRequest) (models.AggregatedResponse, error) {
	if s.pipeline == nil {
		return models.AggregatedResponse{}, errors.New("pipeline not configured")
	}

	start := time.Now()
	resp, err := s.pipeline.Ask(ctx, req)
	duration := time.Since(start)
	if err != nil {
		s.logger.Debug("query not answered", slog.String("query", req.Query), slog.Any("error", err))
	}
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("query latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}
	return resp, nil
}

// ResolveWindow resolves one expression against nowMS, or the service clock when nowMS is zero.
func (s *QueryService) ResolveWindow(expression string, nowMS int64) (models.TimeResolution, error) {
	if nowMS == 0 {
		nowMS = s.now().UnixMilli()
	}
	window, err := s.resolver.Resolve(expression, nowMS)
	if err != nil {
		return models.TimeResolution{}, err
	}
	return models.TimeResolution{
		StartTime: window.StartMS,
		EndTime:   window.EndMS,
		Index:     window.Granularity,
		TimeRange: window.Expression,
	}, nil
}

// MatchServices ranks catalog entries against name. A positive limit caps the result.
func (s *QueryService) MatchServices(name string, limit int) []models.ServiceMatch {
	if s.matcher == nil {
		return []models.ServiceMatch{}
	}
	matches := s.matcher.Match(name)
	metrics.ObserveServiceMatch(len(matches) > 0)
	if matches == nil {
		matches = []models.ServiceMatch{}
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Ask implements the gRPC Ask method.
func (s *QueryService) Ask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	domainReq, err := api.FromStructQueryRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := s.Query(ctx, domainReq)
	if err != nil {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	out, err := api.ToStruct(resp)
	if err != nil {
		s.logger.Error("encode response failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// ResolveTime implements the gRPC ResolveTime method.
func (s *QueryService) ResolveTime(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	domainReq, err := api.FromStructResolveTimeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resolution, err := s.ResolveWindow(domainReq.Expression, domainReq.NowMS)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	out, err := api.ToStruct(map[string]any{
		"expression":      domainReq.Expression,
		"time_resolution": resolution,
		"start":           utils.FromMillis(resolution.StartTime).Format(time.RFC3339),
		"end":             utils.FromMillis(resolution.EndTime).Format(time.RFC3339),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// MatchService implements the gRPC MatchService method.
func (s *QueryService) MatchService(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	domainReq, err := api.FromStructMatchServiceRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	matches := s.MatchServices(domainReq.Name, domainReq.Limit)
	out, err := api.ToStruct(map[string]any{
		"name":    domainReq.Name,
		"found":   len(matches) > 0,
		"matches": matches,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// LatencyP95 returns the current p95 query latency.
func (s *QueryService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-slo/internal/engine"
	"github.com/miradorstack/mirador-slo/internal/models"
)

type pipelineStub struct {
	resp models.AggregatedResponse
	err  error
	got  []models.QueryRequest
}

func (p *pipelineStub) Ask(ctx context.Context, req models.QueryRequest) (models.AggregatedResponse, error) {
	p.got = append(p.got, req)
	return p.resp, p.err
}

var testCatalog = []models.ServiceCandidate{
	{ServiceID: 101, Name: "payments", Path: "payments"},
	{ServiceID: 102, Name: "payment-gateway", Path: "payment-gateway"},
	{ServiceID: 103, Name: "dashboard-stats-service", Path: "dashboard/stats"},
}

func newTestService(p QueryPipeline) *QueryService {
	svc := NewQueryService(nil, p, engine.NewServiceMatcher(testCatalog, 0.3, 5), nil)
	svc.now = func() time.Time { return time.UnixMilli(1705492800000).UTC() }
	return svc
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	return s
}

func TestAskReturnsFailedResponseWithoutRPCError(t *testing.T) {
	stub := &pipelineStub{
		resp: models.AggregatedResponse{Query: "???", Error: "classification failed: unknown primary intent", DataSourcesUsed: []models.DataSourceID{}},
		err:  &models.ClassificationError{Err: errors.New("unknown primary intent")},
	}
	svc := newTestService(stub)

	out, err := svc.Ask(context.Background(), mustStruct(t, map[string]any{"query": "???", "service": "payments"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.GetFields()["success"].GetBoolValue() {
		t.Fatalf("expected success=false")
	}
	if out.GetFields()["error"].GetStringValue() == "" {
		t.Fatalf("expected error message in response")
	}
	if len(stub.got) != 1 || stub.got[0].Service != "payments" {
		t.Fatalf("service override not forwarded: %+v", stub.got)
	}
}

func TestAskRejectsMissingQuery(t *testing.T) {
	svc := newTestService(&pipelineStub{})
	_, err := svc.Ask(context.Background(), mustStruct(t, map[string]any{}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestAskWithoutPipeline(t *testing.T) {
	svc := NewQueryService(nil, nil, nil, nil)
	_, err := svc.Ask(context.Background(), mustStruct(t, map[string]any{"query": "status"}))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", err)
	}
}

func TestResolveTime(t *testing.T) {
	svc := newTestService(&pipelineStub{})

	out, err := svc.ResolveTime(context.Background(), mustStruct(t, map[string]any{"expression": "yesterday"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := out.GetFields()["time_resolution"].GetStructValue().GetFields()
	if int64(res["start_time"].GetNumberValue()) != 1705363200000 || int64(res["end_time"].GetNumberValue()) != 1705449600000 {
		t.Fatalf("unexpected window: %v", res)
	}
	if res["index"].GetStringValue() != string(models.GranularityHourly) {
		t.Fatalf("unexpected index: %v", res["index"])
	}
	if out.GetFields()["start"].GetStringValue() != "2024-01-16T00:00:00Z" {
		t.Fatalf("unexpected start: %v", out.GetFields()["start"])
	}
}

func TestMatchService(t *testing.T) {
	svc := newTestService(&pipelineStub{})

	out, err := svc.MatchService(context.Background(), mustStruct(t, map[string]any{"name": "Payment", "limit": 1.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	matches := out.GetFields()["matches"].GetListValue().GetValues()
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %d", len(matches))
	}
	candidate := matches[0].GetStructValue().GetFields()["candidate"].GetStructValue().GetFields()
	if candidate["name"].GetStringValue() != "payments" {
		t.Fatalf("unexpected best match: %v", candidate)
	}

	none := svc.MatchServices("zzzz-unknown", 0)
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty, non-nil slice, got %#v", none)
	}
}

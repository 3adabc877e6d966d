package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-slo/internal/models"
)

// ResolveTimeRequest asks for the window of one time expression.
type ResolveTimeRequest struct {
	Expression string
	// NowMS anchors relative expressions; zero means the server clock.
	NowMS int64
}

// MatchServiceRequest asks for catalog entries resembling Name.
type MatchServiceRequest struct {
	Name  string
	Limit int
}

// FromStructQueryRequest reads {"query": ..., "service": ...}.
func FromStructQueryRequest(req *structpb.Struct) (models.QueryRequest, error) {
	if req == nil {
		return models.QueryRequest{}, fmt.Errorf("request is nil")
	}
	fields := req.GetFields()
	query := strings.TrimSpace(fields["query"].GetStringValue())
	if query == "" {
		return models.QueryRequest{}, fmt.Errorf("query is required")
	}
	return models.QueryRequest{
		Query:   query,
		Service: strings.TrimSpace(fields["service"].GetStringValue()),
	}, nil
}

// FromStructResolveTimeRequest reads {"expression": ..., "now_ms": ...}.
func FromStructResolveTimeRequest(req *structpb.Struct) (ResolveTimeRequest, error) {
	if req == nil {
		return ResolveTimeRequest{}, fmt.Errorf("request is nil")
	}
	fields := req.GetFields()
	out := ResolveTimeRequest{Expression: fields["expression"].GetStringValue()}
	if v, ok := fields["now_ms"]; ok {
		n := v.GetNumberValue()
		if n < 0 || n != math.Trunc(n) {
			return ResolveTimeRequest{}, fmt.Errorf("now_ms must be a non-negative integer")
		}
		out.NowMS = int64(n)
	}
	return out, nil
}

// FromStructMatchServiceRequest reads {"name": ..., "limit": ...}.
func FromStructMatchServiceRequest(req *structpb.Struct) (MatchServiceRequest, error) {
	if req == nil {
		return MatchServiceRequest{}, fmt.Errorf("request is nil")
	}
	fields := req.GetFields()
	name := strings.TrimSpace(fields["name"].GetStringValue())
	if name == "" {
		return MatchServiceRequest{}, fmt.Errorf("name is required")
	}
	out := MatchServiceRequest{Name: name}
	if v, ok := fields["limit"]; ok {
		limit := v.GetNumberValue()
		if limit < 0 {
			return MatchServiceRequest{}, fmt.Errorf("limit must not be negative")
		}
		out.Limit = int(limit)
	}
	return out, nil
}

// ToStruct renders any JSON-serialisable value as a Struct. The value must
// encode to a JSON object.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return structpb.NewStruct(fields)
}

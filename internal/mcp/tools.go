package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/miradorstack/mirador-slo/internal/models"
)

const (
	toolQuery        = "slo_query"
	toolMatchService = "slo_match_service"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcplib.NewTool(toolQuery,
			mcplib.WithDescription(`Answer a natural-language reliability question about the monitored application.

The question is classified into SLO intents, a time window is resolved from it,
and the relevant data sources (error-budget statistics, learned behaviour
patterns) are queried. The result is the aggregated JSON document with one
entry per data source; each entry carries its own status (OK, ERROR,
NOT_IMPLEMENTED, MISSING_SERVICE).

EXAMPLES: "is payments healthy right now?", "why did checkout degrade yesterday?",
"does login get slower on weekends?"`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("query",
				mcplib.Description("The question to answer"),
				mcplib.Required(),
			),
			mcplib.WithString("service",
				mcplib.Description("Optional service name; overrides any service mentioned in the question"),
			),
		),
		s.handleQuery,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool(toolMatchService,
			mcplib.WithDescription("Find catalog services whose name or path resembles the given text, best match first."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("name",
				mcplib.Description("Service name or fragment, e.g. \"dashboard stats\""),
				mcplib.Required(),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum number of matches to return"),
				mcplib.Min(1),
				mcplib.Max(50),
				mcplib.DefaultNumber(5),
			),
		),
		s.handleMatchService,
	)
}

func (s *Server) handleQuery(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	if query == "" {
		return errorResult("query is required"), nil
	}
	req := models.QueryRequest{Query: query, Service: strings.TrimSpace(request.GetString("service", ""))}

	resp, err := s.backend.Query(ctx, req)
	if err != nil {
		return errorResult(fmt.Sprintf("query failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("encode response: %v", err)), nil
	}
	if !resp.Success {
		s.logger.Debug("mcp query unanswered", slog.String("query", query), slog.String("error", resp.Error))
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
		IsError: !resp.Success,
	}, nil
}

func (s *Server) handleMatchService(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	name := strings.TrimSpace(request.GetString("name", ""))
	if name == "" {
		return errorResult("name is required"), nil
	}
	limit := request.GetInt("limit", 5)

	matches := s.backend.MatchServices(name, limit)
	data, _ := json.MarshalIndent(map[string]any{
		"name":    name,
		"found":   len(matches) > 0,
		"matches": matches,
	}, "", "  ")
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

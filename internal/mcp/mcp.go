// Package mcp exposes the SLO query pipeline as Model Context Protocol tools
// so MCP-capable agents can ask reliability questions directly.
package mcp

import (
	"context"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/miradorstack/mirador-slo/internal/models"
)

// Backend is the query surface the tools call into.
type Backend interface {
	Query(ctx context.Context, req models.QueryRequest) (models.AggregatedResponse, error)
	MatchServices(name string, limit int) []models.ServiceMatch
}

// Server wraps the mcp-go server with the SLO tools registered.
type Server struct {
	mcpServer *mcpserver.MCPServer
	backend   Backend
	logger    *slog.Logger
}

// New creates an MCP server with every tool registered.
func New(backend Backend, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{backend: backend, logger: logger}
	s.mcpServer = mcpserver.NewMCPServer(
		"mirador-slo",
		version,
		mcpserver.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving the tools over stdin/stdout.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

// Package mcp exposes the scene catalog as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

const (
	ServerName    = "scene-browser"
	ServerVersion = "v1.0.0"
)

// Server wraps the MCP server with the catalog tools registered.
type Server struct {
	mcpServer *mcp.Server
	logger    *slog.Logger
	handler   *Handler
}

// NewServer creates an MCP server whose tools query c.
func NewServer(c catalog.Catalog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		logger:    logger,
		handler:   NewHandler(c, logger),
	}

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, ListProductsTool(), s.handler.HandleListProducts)
	mcp.AddTool(s.mcpServer, SearchScenesTool(), s.handler.HandleSearchScenes)
}

// HTTPHandler returns an http.Handler serving the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Logger: s.logger,
		},
	)
}

// Run serves the tools over stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Package mcp exposes appointment routing as Model Context Protocol tools,
// resources and prompts.
package mcp

import (
	"context"
	"fmt"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// Server identity reported during initialization
const (
	ServerName    = "care-router"
	ServerVersion = "v1.0.0"
)

// Server wraps the MCP SDK server and the routing components it serves
type Server struct {
	mcpServer *mcp.Server
	optimizer *pipeline.Optimizer
	directory domain.SchedulingDirectory
	daysAhead int
	logger    *logrus.Logger
}

// NewServer creates a new MCP server with every routing tool registered
func NewServer(optimizer *pipeline.Optimizer, directory domain.SchedulingDirectory, daysAhead int, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	if daysAhead <= 0 {
		daysAhead = pipeline.DefaultDaysAhead
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil),
		optimizer: optimizer,
		directory: directory,
		daysAhead: daysAhead,
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, MetadataRouteAppointments, s.RouteAppointments)
	mcp.AddTool(s.mcpServer, MetadataFindSlots, s.FindSlots)
	mcp.AddTool(s.mcpServer, MetadataListAlternativeCare, s.ListAlternativeCare)

	s.logger.WithField("tools", 3).Debug("Registered MCP tools")
}

// MCP returns the underlying SDK server
func (s *Server) MCP() *mcp.Server {
	return s.mcpServer
}

// Run serves the tools over stdio until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.WithField("server", ServerName).Info("Starting MCP server on stdio")
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	s.logger.Info("MCP server stopped")
	return nil
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/care-router-mcp-server/internal/app"
	"github.com/care-router-mcp-server/internal/config"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stdio transport; log writes to stderr
	if err := app.ServeMCP(ctx, configManager); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("Care router MCP server stopped")
}

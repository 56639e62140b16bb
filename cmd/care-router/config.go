package main

import (
	"github.com/care-router-mcp-server/internal/config"
)

// loadConfig reads the file at path, or the default search path when empty
func loadConfig(path string) (*config.Manager, error) {
	if path == "" {
		return config.NewManager()
	}
	return config.NewManagerFromFile(path)
}

package app

import (
	"context"
	"fmt"
	"io"

	"github.com/care-router-mcp-server/internal/api"
	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/logging"
	"github.com/care-router-mcp-server/internal/mcp"
	"github.com/sirupsen/logrus"
)

// Bootstrap builds the logger and the wired application from validated config.
// Closing the returned closer releases both.
func Bootstrap(ctx context.Context, cfg *domain.Config) (*App, io.Closer, error) {
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("configuring logging: %w", err)
	}

	a, err := New(ctx, cfg, logger, Options{})
	if err != nil {
		logCloser.Close()
		return nil, nil, err
	}
	return a, closerFunc(func() error {
		err := a.Close()
		logCloser.Close()
		return err
	}), nil
}

// ServeHTTP runs the HTTP API until ctx is cancelled
func ServeHTTP(ctx context.Context, manager domain.ConfigManager) error {
	a, closer, err := Bootstrap(ctx, manager.GetConfig())
	if err != nil {
		return err
	}
	defer closer.Close()

	server := api.NewServer(manager, api.Dependencies{
		Decision:    a.Decision,
		Optimizer:   a.Optimizer,
		Interviewer: a.Interviewer,
		Sessions:    a.Sessions,
		Metrics:     a.Metrics.Handler(),
		Logger:      a.Logger,
	})

	cfg := manager.GetServerConfig()
	a.Logger.WithFields(logrus.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
	}).Info("Starting care router HTTP server")
	return server.Start(ctx)
}

// ServeMCP runs the MCP tools over stdio until ctx is cancelled. Stdout carries
// the protocol, so logs are moved to stderr.
func ServeMCP(ctx context.Context, manager domain.ConfigManager) error {
	cfg := *manager.GetConfig()
	if cfg.Logging.Output == "" || cfg.Logging.Output == logging.OutputStdout {
		cfg.Logging.Output = logging.OutputStderr
	}

	a, closer, err := Bootstrap(ctx, &cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	return mcp.NewServer(a.Optimizer, a.Directory, cfg.Pipeline.DaysAhead, a.Logger).Run(ctx)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/care-router-mcp-server/internal/app"
	"github.com/spf13/cobra"
)

func mcpCMD() *cobra.Command {
	var cfgPath string

	var mcpServe = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the routing tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if err := manager.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.ServeMCP(ctx, manager)
		},
	}
	mcpServe.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")

	return mcpServe
}

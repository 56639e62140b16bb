package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/care-router-mcp-server/internal/app"
	"github.com/spf13/cobra"
)

func serveCMD() *cobra.Command {
	var cfgPath string

	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
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
			return app.ServeHTTP(ctx, manager)
		},
	}
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")

	return serve
}

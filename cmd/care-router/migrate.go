package main

import (
	"github.com/care-router-mcp-server/internal/app"
	"github.com/care-router-mcp-server/internal/logging"
	"github.com/spf13/cobra"
)

func migrateCMD() *cobra.Command {
	var direction string
	var cfgPath string

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if err := manager.ValidateStorage(); err != nil {
				return err
			}

			cfg := manager.GetConfig()
			logger, closer, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer closer.Close()

			return app.Migrate(cmd.Context(), cfg, direction, logger)
		},
	}
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")

	return migrate
}

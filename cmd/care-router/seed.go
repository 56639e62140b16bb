package main

import (
	"fmt"
	"time"

	"github.com/care-router-mcp-server/internal/app"
	"github.com/care-router-mcp-server/internal/logging"
	"github.com/spf13/cobra"
)

func seedCMD() *cobra.Command {
	var cfgPath string
	var days int

	var seed = &cobra.Command{
		Use:   "seed",
		Short: "Populate the configured slot store with generated availability",
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

			if days <= 0 {
				days = cfg.Directory.SeedDays
			}
			n, err := app.SeedDirectory(cmd.Context(), cfg, days, time.Now, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d slots over %d days\n", n, days)
			return nil
		},
	}
	seed.Flags().IntVar(&days, "days", 0, "days of availability to generate (0 = directory.seed_days)")
	seed.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")

	return seed
}

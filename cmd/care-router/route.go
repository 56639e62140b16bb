package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/care-router-mcp-server/internal/app"
	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/logging"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func routeCMD() *cobra.Command {
	var cfgPath string
	var text string
	var age int
	var sex string
	var output string

	var route = &cobra.Command{
		Use:   "route",
		Short: "Run the routing pipeline once and print the ranked appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if err := manager.Validate(); err != nil {
				return err
			}

			cfg := *manager.GetConfig()
			if cfg.Logging.Output == "" || cfg.Logging.Output == logging.OutputStdout {
				cfg.Logging.Output = logging.OutputStderr
			}

			a, closer, err := app.Bootstrap(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			result, err := a.Optimizer.Optimize(cmd.Context(), pipeline.Request{
				Age:         age,
				Sex:         domain.Sex(strings.ToLower(sex)),
				SymptomText: text,
			})
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), output, result)
		},
	}
	route.Flags().StringVar(&text, "text", "", "free-text symptom description")
	route.Flags().IntVar(&age, "age", 0, "patient age in years")
	route.Flags().StringVar(&sex, "sex", "", "male or female")
	route.Flags().StringVarP(&output, "output", "o", "json", "json or yaml")
	route.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")
	_ = route.MarkFlagRequired("text")

	return route
}

// writeResult renders v as indented JSON or as YAML carrying the same keys
func writeResult(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	switch strings.ToLower(format) {
	case "", "json":
	case "yaml", "yml":
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("encoding result as yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format %q (json or yaml)", format)
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

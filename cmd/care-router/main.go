package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{
		Use:          "care-router",
		Short:        "Symptom-driven appointment routing",
		SilenceUsage: true,
	}

	root.AddCommand(serveCMD(), mcpCMD(), routeCMD(), seedCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

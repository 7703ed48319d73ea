package main

import (
	"os"

	"github.com/spf13/cobra"

	"bandwave/internal/interfaces/cli/migrate"
	"bandwave/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bandwave",
		Short: "Bandwave - broadband subscription lifecycle engine",
		Long:  `Bandwave manages broadband subscription lifecycles: plan catalog, proration, plan-change workflow, usage monitoring, and event fan-out.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title PeakPT Workout API
// @version 1.0
// @description Daily workout log: workouts by date, exercises, sets and an exercise library.
// @host localhost:8080
// @BasePath /api
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configDir string

	serve := serveCmd(&configDir)
	cmd := &cobra.Command{
		Use:   "peakpt",
		Short: "PeakPT workout tracker server",
		Long: `PeakPT stores one workout per calendar day. Each workout holds named
exercises and each exercise holds sets of reps and weight.

Without a subcommand the HTTP server is started.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory containing config.yaml")

	cmd.AddCommand(serve)
	cmd.AddCommand(seedCmd(&configDir))
	return cmd
}

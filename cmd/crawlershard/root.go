package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "crawlershard",
	Short: "Run stages of the sharded web crawler pipeline",
	Long: `crawlershard runs the fetcher/analyzer/filter/logger pipeline
described in spec.md. Each stage is its own pool-of-workers process,
communicating over local Unix-socket channels; "run" launches all four
plus a one-shot seeder, and "worker"/"seed" run one piece directly (useful
for running stages on separate hosts or under a process supervisor).`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

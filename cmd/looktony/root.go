package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "looktony",
	Short: "Protocol orchestration engine",
	Long: `looktony loads declarative, graph-shaped protocols, activates them,
and executes their steps against the situational store. Active protocols are
re-evaluated whenever new situational data arrives: steps whose conditions
still hold are re-run, and protocols whose conditions fail are deactivated.

Core capabilities:
- Validates protocol definitions at load time (empty protocols and dangling
  step references are rejected)
- Gates activation on environmental, tactical, and temporal conditions
- Progresses completed steps to their successors concurrently
- Records activation episodes and step executions for auditing`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

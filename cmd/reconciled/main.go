// Package main implements the reconciled CLI.
//
// reconciled reconciles receipt records held in a relational store: it
// extracts unreconciled rows, validates each one with an LLM-driven
// reasoning loop over deterministic rule tools, and auto-reconciles
// records whose confidence clears the configured thresholds.
//
// Usage:
//
//	# One reconciliation pass
//	reconciled run --limit 25
//
//	# Long-running HTTP daemon
//	reconciled serve
//
// Configuration comes from a YAML file (--config) overridden by
// RECONCILED_* environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reconciled",
	Short: "LLM-assisted receipt reconciliation pipeline",
	Long: `reconciled validates unreconciled receipt records with rule tools and an
LLM reasoning agent, then transitions them based on confidence thresholds.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reconciled %s (commit %s, built %s)\n", version, gitCommit, buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

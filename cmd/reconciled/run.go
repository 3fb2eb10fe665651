package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runLimit int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation pass and print the summary",
	Long: `Run a single reconciliation pass: extract unreconciled receipts, validate
each with the reasoning agent, apply the threshold decision, and print the
run summary as JSON.

Examples:
  # Process everything currently unreconciled
  reconciled run

  # Process at most 25 receipts
  reconciled run --limit 25`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "maximum receipts to process (0 = no limit)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(false)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limit := runLimit
	if limit == 0 {
		limit = p.cfg.Reconciliation.BatchLimit
	}

	result := p.reconciler.ReconcileReceipts(ctx, limit)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))

	if !result.Success {
		return fmt.Errorf("reconciliation run failed: %s", result.Error)
	}
	return nil
}

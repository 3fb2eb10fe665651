// Package reconcile drives the receipt reconciliation pipeline:
// connect, extract unreconciled receipts, validate each with the
// reasoning agent, decide via the threshold engine, and roll the results
// up into a run summary.
//
// Runs are fully sequential: one record at a time, one shared store
// connection, single-writer discipline. A single record's failure never
// aborts the run; only a connection failure at the start is terminal.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reconciled/internal/agent"
	"github.com/fyrsmithlabs/reconciled/internal/decision"
	"github.com/fyrsmithlabs/reconciled/internal/receipt"
	"github.com/fyrsmithlabs/reconciled/internal/store"
)

// Extractor pulls the unreconciled receipt rows. *store.ReceiptStore
// satisfies it.
type Extractor interface {
	Unreconciled(ctx context.Context) ([]store.Row, error)
}

// Validator produces a verdict for one record.
type Validator interface {
	Validate(ctx context.Context, rec *receipt.Record) agent.Verdict
}

// Decider maps a verdict to its action and bucket.
type Decider interface {
	Decide(ctx context.Context, verdict agent.Verdict) decision.Outcome
}

// Connector is the slice of the store gateway the orchestrator touches.
type Connector interface {
	Connect(ctx context.Context) error
	Connected() bool
}

// Reconciler is the pipeline orchestrator.
type Reconciler struct {
	conn      Connector
	extractor Extractor
	validator Validator
	decider   Decider
	metrics   *Metrics
	logger    *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// New creates a Reconciler over an established or lazily-established
// store connection.
func New(conn Connector, extractor Extractor, validator Validator, decider Decider, opts ...Option) *Reconciler {
	r := &Reconciler{
		conn:      conn,
		extractor: extractor,
		validator: validator,
		decider:   decider,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReconcileReceipts runs one full pipeline pass. limit > 0 truncates the
// extracted set to the first N records in extraction order.
//
// The returned result always carries an explicit success flag and
// per-bucket counts; no error escapes this entry point.
func (r *Reconciler) ReconcileReceipts(ctx context.Context, limit int) *RunResult {
	result := &RunResult{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("run_id", result.RunID))

	if !r.conn.Connected() {
		if err := r.conn.Connect(ctx); err != nil {
			logger.Error("store connection failed", zap.Error(err))
			result.Success = false
			result.Error = fmt.Sprintf("failed to connect to database: %v", err)
			r.metrics.observeRun("connection_failed")
			return result
		}
	}

	rows, err := r.extractor.Unreconciled(ctx)
	if err != nil {
		// Extraction failure is non-fatal: treated as zero records.
		logger.Warn("extraction failed, treating as empty", zap.Error(err))
		rows = nil
	}

	if len(rows) == 0 {
		logger.Info("no unreconciled receipts found")
		result.Success = true
		result.Message = "no unreconciled receipts found"
		r.metrics.observeRun("empty")
		return result
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	logger.Info("processing receipts", zap.Int("count", len(rows)))
	result.Processed = len(rows)

	for i, row := range rows {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", zap.Int("remaining", len(rows)-i), zap.Error(ctx.Err()))
			result.Processed = i
			break
		}

		rec := receipt.FromRow(row)
		start := time.Now()

		verdict := r.validator.Validate(ctx, rec)
		outcome := r.decider.Decide(ctx, verdict)

		result.count(outcome.Bucket)
		result.Details = append(result.Details, Detail{
			ReceiptID:     rec.ID,
			ReceiptNumber: rec.ReceiptNumber,
			Status:        verdict.Status,
			Confidence:    verdict.Confidence,
			Reasoning:     verdict.Reasoning,
			Issues:        verdict.Issues,
			Action:        outcome.Action,
		})
		r.metrics.observeRecord(string(outcome.Action), time.Since(start).Seconds())

		logger.Info("receipt processed",
			zap.Int64("receipt_id", rec.ID),
			zap.String("receipt_number", rec.ReceiptNumber),
			zap.String("status", string(verdict.Status)),
			zap.Int("confidence", verdict.Confidence),
			zap.String("action", string(outcome.Action)),
		)
	}

	result.Success = true
	r.metrics.observeRun("completed")

	logger.Info("reconciliation summary",
		zap.Int("processed", result.Processed),
		zap.Int("reconciled", result.Reconciled),
		zap.Int("failed", result.Failed),
		zap.Int("needs_review", result.NeedsReview),
	)
	return result
}

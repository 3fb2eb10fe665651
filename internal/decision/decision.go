// Package decision maps a validation verdict and confidence score to a
// reconciliation action, triggering the guarded status update when the
// auto-reconcile bar is met.
package decision

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reconciled/internal/agent"
)

// Action is the per-record action recorded in the run summary.
type Action string

const (
	ActionReconciled   Action = "reconciled"
	ActionUpdateFailed Action = "update_failed"
	ActionInvalid      Action = "invalid"
	ActionNeedsReview  Action = "needs_review"
)

// Bucket is the summary counter a record lands in.
type Bucket int

const (
	BucketReconciled Bucket = iota
	BucketFailed
	BucketNeedsReview
)

// StatusUpdater is the narrow store capability the engine needs.
// *store.ReceiptStore satisfies it.
type StatusUpdater interface {
	MarkReconciled(ctx context.Context, id int64) error
}

// Thresholds configures the confidence gates. MinConfidence must not
// exceed AutoReconcile; config validation enforces this at startup, the
// engine assumes it.
type Thresholds struct {
	MinConfidence       float64
	AutoReconcile       float64
	EnableAutoReconcile bool
}

// Outcome is the decision for one record.
type Outcome struct {
	Action Action
	Bucket Bucket
}

// Engine applies the threshold gates.
type Engine struct {
	updater    StatusUpdater
	thresholds Thresholds
	logger     *zap.Logger
}

// NewEngine creates a decision engine. The updater must not be nil when
// auto-reconcile is enabled.
func NewEngine(updater StatusUpdater, thresholds Thresholds, logger *zap.Logger) (*Engine, error) {
	if thresholds.EnableAutoReconcile && updater == nil {
		return nil, errors.New("decision: status updater required when auto-reconcile is enabled")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{updater: updater, thresholds: thresholds, logger: logger}, nil
}

// Decide maps one verdict to its action and bucket:
//
//   - VALID at or above the minimum confidence, and at or above the
//     auto-reconcile threshold with the feature enabled, attempts exactly
//     one guarded status update; update failure lands in the failed
//     bucket with action "update_failed".
//   - VALID below the auto-reconcile bar goes to review.
//   - INVALID goes to failed with no update attempted.
//   - Everything else (NEEDS_REVIEW, ERROR, VALID below minimum
//     confidence) goes to review.
func (e *Engine) Decide(ctx context.Context, verdict agent.Verdict) Outcome {
	confidence := float64(verdict.Confidence)

	switch {
	case verdict.Status == agent.StatusValid && confidence >= e.thresholds.MinConfidence:
		if confidence >= e.thresholds.AutoReconcile && e.thresholds.EnableAutoReconcile {
			if err := e.updater.MarkReconciled(ctx, verdict.ReceiptID); err != nil {
				e.logger.Warn("status update failed",
					zap.Int64("receipt_id", verdict.ReceiptID),
					zap.Error(err),
				)
				return Outcome{Action: ActionUpdateFailed, Bucket: BucketFailed}
			}
			e.logger.Info("receipt auto-reconciled",
				zap.Int64("receipt_id", verdict.ReceiptID),
				zap.Int("confidence", verdict.Confidence),
			)
			return Outcome{Action: ActionReconciled, Bucket: BucketReconciled}
		}
		return Outcome{Action: ActionNeedsReview, Bucket: BucketNeedsReview}

	case verdict.Status == agent.StatusInvalid:
		return Outcome{Action: ActionInvalid, Bucket: BucketFailed}

	default:
		return Outcome{Action: ActionNeedsReview, Bucket: BucketNeedsReview}
	}
}

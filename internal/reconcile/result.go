package reconcile

import (
	"github.com/fyrsmithlabs/reconciled/internal/agent"
	"github.com/fyrsmithlabs/reconciled/internal/decision"
)

// Detail is the per-record entry in a run summary.
type Detail struct {
	ReceiptID     int64           `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Status        agent.Status    `json:"status"`
	Confidence    int             `json:"confidence"`
	Reasoning     string          `json:"reasoning"`
	Issues        []string        `json:"issues"`
	Action        decision.Action `json:"action"`
}

// RunResult aggregates one pipeline invocation. It is created fresh per
// run and immutable once returned.
type RunResult struct {
	RunID       string   `json:"run_id"`
	Success     bool     `json:"success"`
	Error       string   `json:"error,omitempty"`
	Message     string   `json:"message,omitempty"`
	Processed   int      `json:"processed"`
	Reconciled  int      `json:"reconciled"`
	Failed      int      `json:"failed"`
	NeedsReview int      `json:"needs_review"`
	Details     []Detail `json:"details,omitempty"`
}

func (r *RunResult) count(bucket decision.Bucket) {
	switch bucket {
	case decision.BucketReconciled:
		r.Reconciled++
	case decision.BucketFailed:
		r.Failed++
	case decision.BucketNeedsReview:
		r.NeedsReview++
	}
}

package rules

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
	"github.com/fyrsmithlabs/reconciled/internal/store"
)

// DuplicateCounter is the narrow store capability the duplicate tool
// needs. *store.ReceiptStore satisfies it.
type DuplicateCounter interface {
	CountReconciledDuplicates(ctx context.Context, key store.DuplicateKey) (int, error)
}

// duplicateTool checks the store for already-reconciled rows sharing the
// receipt's unique-constraint key. It is best effort: missing key data or
// a store failure degrades to WARNING/ERROR and never blocks on its own.
type duplicateTool struct {
	counter DuplicateCounter
}

func (t *duplicateTool) Name() string { return "check_duplicate" }

func (t *duplicateTool) Description() string {
	return "Check whether an already-reconciled receipt exists with the same receipt number, month, year, employer, receipt type and penalty/adjustment linkage."
}

func (t *duplicateTool) Check(ctx context.Context, rec *receipt.Record) string {
	if t.counter == nil {
		return "WARNING: Cannot check duplicates without database connection"
	}

	if rec.ID == 0 || rec.ReceiptNumber == "" || rec.Amount == nil ||
		rec.EmployerID == nil || rec.Month == nil || rec.Year == nil || rec.ReceiptType == "" {
		return "WARNING: Insufficient data to check duplicates"
	}

	key := store.DuplicateKey{
		ID:            rec.ID,
		ReceiptNumber: rec.ReceiptNumber,
		Month:         *rec.Month,
		Year:          *rec.Year,
		EmployerID:    *rec.EmployerID,
		ReceiptType:   rec.ReceiptType,
		PenaltyID:     rec.PenaltyID,
		AdjustmentID:  rec.AdjustmentID,
	}

	count, err := t.counter.CountReconciledDuplicates(ctx, key)
	if err != nil {
		return fmt.Sprintf("ERROR: Could not check duplicates: %v", err)
	}
	if count > 0 {
		return fmt.Sprintf("DUPLICATE: Found %d similar reconciled receipt(s)", count)
	}
	return "UNIQUE: No duplicates found"
}

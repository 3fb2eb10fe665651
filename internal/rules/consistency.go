package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
)

// consistencyTool checks that month, year, amount and receipt date make
// logical sense together. Mismatches are reported, never corrected.
type consistencyTool struct {
	limits Limits
}

func (t *consistencyTool) Name() string { return "check_logical_consistency" }

func (t *consistencyTool) Description() string {
	return "Check that month, year, amount and receipt date are within bounds and agree with each other."
}

func (t *consistencyTool) Check(_ context.Context, rec *receipt.Record) string {
	var issues []string

	if rec.Month != nil {
		if *rec.Month < 1 || *rec.Month > 12 {
			issues = append(issues, fmt.Sprintf("Invalid month: %d", *rec.Month))
		}
	}

	if rec.Year != nil {
		if *rec.Year < t.limits.MinYear || *rec.Year > t.limits.MaxYear {
			issues = append(issues, fmt.Sprintf("Suspicious year: %d", *rec.Year))
		}
	}

	if rec.Amount != nil {
		switch {
		case *rec.Amount < 0:
			issues = append(issues, "Negative amount")
		case *rec.Amount > t.limits.SanityCap:
			issues = append(issues, "Extremely large amount")
		}
	}

	if rec.ReceiptDate != nil && rec.Month != nil && rec.Year != nil {
		if int(rec.ReceiptDate.Month()) != *rec.Month || rec.ReceiptDate.Year() != *rec.Year {
			issues = append(issues, fmt.Sprintf(
				"Receipt date inconsistent with month/year: date=%s, month=%d, year=%d",
				rec.ReceiptDate.Format("2006-01-02"), *rec.Month, *rec.Year))
		}
	}

	if len(issues) > 0 {
		return fmt.Sprintf("INCONSISTENT: %s", strings.Join(issues, ", "))
	}
	return "CONSISTENT: All fields are logically valid"
}

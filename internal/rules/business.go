package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
)

// businessRulesTool checks the reconciliation business rules: the record
// must still be unreconciled, carry a receipt number, stay within amount
// bounds and not be soft-deleted.
type businessRulesTool struct {
	limits Limits
}

func (t *businessRulesTool) Name() string { return "check_business_rules" }

func (t *businessRulesTool) Description() string {
	return "Check reconciliation business rules: unreconciled status, receipt number present, amount within thresholds, record not deleted."
}

func (t *businessRulesTool) Check(_ context.Context, rec *receipt.Record) string {
	var violations []string

	if rec.Status != receipt.StatusUnreconciled {
		violations = append(violations, fmt.Sprintf("Status should be '%s' but is '%s'", receipt.StatusUnreconciled, rec.Status))
	}

	if strings.TrimSpace(rec.ReceiptNumber) == "" {
		violations = append(violations, "Missing receipt number")
	}

	if rec.ReceiptDate != nil && rec.Month != nil && rec.Year != nil {
		if int(rec.ReceiptDate.Month()) != *rec.Month || rec.ReceiptDate.Year() != *rec.Year {
			violations = append(violations, "Receipt date inconsistent with month/year")
		}
	}

	if rec.Amount != nil {
		switch {
		case *rec.Amount <= 0:
			violations = append(violations, "Amount must be positive")
		case *rec.Amount > t.limits.MaxAmount:
			violations = append(violations, "Amount exceeds maximum threshold")
		}
	}

	// A soft-deleted record must never be auto-reconciled.
	if rec.DeletedAt != nil {
		violations = append(violations, "Receipt is marked as deleted")
	}

	if len(violations) > 0 {
		return fmt.Sprintf("RULE_VIOLATION: %s", strings.Join(violations, ", "))
	}
	return "COMPLIANT: All business rules satisfied"
}

package rules

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
)

// assignmentTool checks the owning party, office and scheme linkage.
// A missing main scheme is a soft requirement: warning, not failure.
type assignmentTool struct{}

func (t *assignmentTool) Name() string { return "check_employer_assignment" }

func (t *assignmentTool) Description() string {
	return "Check that the receipt is assigned to an employer, office and scheme. A missing main scheme is reported as a warning."
}

func (t *assignmentTool) Check(_ context.Context, rec *receipt.Record) string {
	if rec.EmployerID == nil {
		return "INVALID: Missing employer assignment"
	}
	if rec.OfficeID == nil {
		return "INVALID: Missing office assignment"
	}
	if rec.SchemeID == nil {
		return "INVALID: Missing scheme assignment"
	}
	if rec.MainSchemeID == nil {
		return "WARNING: Missing main scheme assignment"
	}

	return fmt.Sprintf("VALID: Assigned to Employer=%d, Office=%d, Scheme=%d, MainScheme=%d",
		*rec.EmployerID, *rec.OfficeID, *rec.SchemeID, *rec.MainSchemeID)
}

package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
)

// validityTool checks required-field completeness and field formats.
type validityTool struct{}

func (t *validityTool) Name() string { return "check_receipt_validity" }

func (t *validityTool) Description() string {
	return "Check that the receipt has all required fields, a positive amount, and valid status, receipt type and apportionment type."
}

func (t *validityTool) Check(_ context.Context, rec *receipt.Record) string {
	// Report every missing field at once, not just the first.
	var missing []string
	if rec.ID == 0 {
		missing = append(missing, "ID")
	}
	if rec.ReceiptNumber == "" {
		missing = append(missing, "RECEIPT_NUMBER")
	}
	if rec.Amount == nil {
		missing = append(missing, "AMOUNT")
	}
	if rec.Status == "" {
		missing = append(missing, "STATUS")
	}
	if rec.EmployerID == nil {
		missing = append(missing, "EMPLOYER_ID")
	}
	if rec.OfficeID == nil {
		missing = append(missing, "OFFICE_ID")
	}
	if rec.Month == nil {
		missing = append(missing, "MONTH")
	}
	if rec.Year == nil {
		missing = append(missing, "YEAR")
	}
	if rec.SchemeID == nil {
		missing = append(missing, "SCHEME_ID")
	}
	if rec.ReceiptType == "" {
		missing = append(missing, "RECEIPT_TYPE")
	}
	if rec.ApportionType == "" {
		missing = append(missing, "APPORTION_TYPE")
	}
	if len(missing) > 0 {
		return fmt.Sprintf("INVALID: Missing required fields: %s", strings.Join(missing, ", "))
	}

	if *rec.Amount <= 0 {
		return "INVALID: Amount must be positive"
	}

	if !contains(receipt.ValidStatuses, rec.Status) {
		return fmt.Sprintf("INVALID: Status must be one of %v, got '%s'", receipt.ValidStatuses, rec.Status)
	}
	if !contains(receipt.ValidReceiptTypes, rec.ReceiptType) {
		return fmt.Sprintf("INVALID: Receipt type must be one of %v, got '%s'", receipt.ValidReceiptTypes, rec.ReceiptType)
	}
	if !contains(receipt.ValidApportionTypes, rec.ApportionType) {
		return fmt.Sprintf("INVALID: Apportion type must be one of %v, got '%s'", receipt.ValidApportionTypes, rec.ApportionType)
	}

	return "VALID: Receipt has all required fields and valid format"
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}

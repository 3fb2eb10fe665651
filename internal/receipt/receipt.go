// Package receipt defines the receipt record model shared by the
// reconciliation pipeline.
//
// A Record is an immutable snapshot of one row from the receipt details
// table. It is created once per pipeline pass and never mutated in place;
// status transitions are written back to the store as separate updates.
package receipt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Receipt status codes as stored in the STATUS column.
const (
	StatusUnreconciled = "U"
	StatusReconciled   = "R"
	StatusReversed     = "REV"
	StatusInvalid      = "I"
)

// SystemActor is the RECONCILED_BY marker stamped on automatic status
// updates. Downstream readers of the store depend on this exact value.
const SystemActor = "SYSTEM"

// ValidStatuses lists the accepted STATUS values.
var ValidStatuses = []string{StatusUnreconciled, StatusReconciled, StatusReversed, StatusInvalid}

// ValidReceiptTypes lists the accepted RECEIPT_TYPE values.
var ValidReceiptTypes = []string{"1", "2", "3", "4", "5"}

// ValidApportionTypes lists the accepted APPORTION_TYPE values.
var ValidApportionTypes = []string{"Auto", "Normal"}

// Record is one receipt row under reconciliation. Optional columns use
// pointer fields so that a missing value is distinguishable from a zero
// value. Columns not recognized by the mapper land in Extra.
type Record struct {
	ID               int64
	ReceiptNumber    string
	ReceiptDetailNo  *int64
	EmployerID       *int64
	OfficeID         *int64
	MemberID         *int64
	ReceiptDate      *time.Time
	Month            *int
	Year             *int
	MainSchemeID     *int64
	SchemeID         *int64
	Amount           *float64
	Status           string
	ReceiptType      string
	ApportionType    string
	PenaltyID        *int64
	AdjustmentID     *int64
	EmployerOfficeID string
	ReconciledBy     string
	CreatedBy        string
	ReconciledAt     *time.Time
	CreatedAt        *time.Time
	UpdatedAt        *time.Time
	DeletedAt        *time.Time

	Extra map[string]any
}

// recognized column names, after uppercase normalization.
var knownColumns = map[string]struct{}{
	"ID": {}, "RECEIPT_NUMBER": {}, "RECEIPT_DETAIL_NO": {}, "EMPLOYER_ID": {},
	"OFFICE_ID": {}, "MEMBER_ID": {}, "RECEIPT_DATE": {}, "MONTH": {}, "YEAR": {},
	"MAIN_SCHEME_ID": {}, "SCHEME_ID": {}, "AMOUNT": {}, "STATUS": {},
	"RECEIPT_TYPE": {}, "APPORTION_TYPE": {}, "PENALTY_ID": {}, "ADJUSTMENT_ID": {},
	"EMPLOYER_OFFICE_ID": {}, "RECONCILED_BY": {}, "CREATED_BY": {},
	"RECONCILED_AT": {}, "CREATED_AT": {}, "UPDATED_AT": {}, "DELETED_AT": {},
}

// FromRow builds a Record from a raw store row. Column names are
// normalized to uppercase exactly once here, so the rest of the pipeline
// never performs case-fallback lookups.
func FromRow(row map[string]any) *Record {
	norm := make(map[string]any, len(row))
	for k, v := range row {
		norm[strings.ToUpper(k)] = v
	}

	rec := &Record{
		ID:               asInt64Value(norm["ID"]),
		ReceiptNumber:    asString(norm["RECEIPT_NUMBER"]),
		ReceiptDetailNo:  asInt64(norm["RECEIPT_DETAIL_NO"]),
		EmployerID:       asInt64(norm["EMPLOYER_ID"]),
		OfficeID:         asInt64(norm["OFFICE_ID"]),
		MemberID:         asInt64(norm["MEMBER_ID"]),
		ReceiptDate:      asTime(norm["RECEIPT_DATE"]),
		Month:            asInt(norm["MONTH"]),
		Year:             asInt(norm["YEAR"]),
		MainSchemeID:     asInt64(norm["MAIN_SCHEME_ID"]),
		SchemeID:         asInt64(norm["SCHEME_ID"]),
		Amount:           asFloat(norm["AMOUNT"]),
		Status:           strings.ToUpper(asString(norm["STATUS"])),
		ReceiptType:      asString(norm["RECEIPT_TYPE"]),
		ApportionType:    asString(norm["APPORTION_TYPE"]),
		PenaltyID:        asInt64(norm["PENALTY_ID"]),
		AdjustmentID:     asInt64(norm["ADJUSTMENT_ID"]),
		EmployerOfficeID: asString(norm["EMPLOYER_OFFICE_ID"]),
		ReconciledBy:     asString(norm["RECONCILED_BY"]),
		CreatedBy:        asString(norm["CREATED_BY"]),
		ReconciledAt:     asTime(norm["RECONCILED_AT"]),
		CreatedAt:        asTime(norm["CREATED_AT"]),
		UpdatedAt:        asTime(norm["UPDATED_AT"]),
		DeletedAt:        asTime(norm["DELETED_AT"]),
	}

	for k, v := range norm {
		if _, ok := knownColumns[k]; ok {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[k] = v
	}

	return rec
}

// promptOrder fixes the field order of the snapshot handed to the agent.
var promptOrder = []string{
	"ID", "RECEIPT_NUMBER", "STATUS", "AMOUNT", "MONTH", "YEAR",
	"EMPLOYER_ID", "OFFICE_ID", "MEMBER_ID", "MAIN_SCHEME_ID", "SCHEME_ID",
	"RECEIPT_TYPE", "APPORTION_TYPE", "RECEIPT_DATE", "EMPLOYER_OFFICE_ID",
	"PENALTY_ID", "ADJUSTMENT_ID",
}

// PromptFields renders the record as a compact FIELD: value list for the
// reasoning agent. Absent fields are omitted rather than rendered empty.
func (r *Record) PromptFields() string {
	values := map[string]string{}
	if r.ID != 0 {
		values["ID"] = strconv.FormatInt(r.ID, 10)
	}
	if r.ReceiptNumber != "" {
		values["RECEIPT_NUMBER"] = r.ReceiptNumber
	}
	if r.Status != "" {
		values["STATUS"] = r.Status
	}
	if r.Amount != nil {
		values["AMOUNT"] = strconv.FormatFloat(*r.Amount, 'f', -1, 64)
	}
	if r.Month != nil {
		values["MONTH"] = strconv.Itoa(*r.Month)
	}
	if r.Year != nil {
		values["YEAR"] = strconv.Itoa(*r.Year)
	}
	putInt64(values, "EMPLOYER_ID", r.EmployerID)
	putInt64(values, "OFFICE_ID", r.OfficeID)
	putInt64(values, "MEMBER_ID", r.MemberID)
	putInt64(values, "MAIN_SCHEME_ID", r.MainSchemeID)
	putInt64(values, "SCHEME_ID", r.SchemeID)
	if r.ReceiptType != "" {
		values["RECEIPT_TYPE"] = r.ReceiptType
	}
	if r.ApportionType != "" {
		values["APPORTION_TYPE"] = r.ApportionType
	}
	if r.ReceiptDate != nil {
		values["RECEIPT_DATE"] = r.ReceiptDate.Format("2006-01-02")
	}
	if r.EmployerOfficeID != "" {
		values["EMPLOYER_OFFICE_ID"] = r.EmployerOfficeID
	}
	putInt64(values, "PENALTY_ID", r.PenaltyID)
	putInt64(values, "ADJUSTMENT_ID", r.AdjustmentID)

	var b strings.Builder
	for _, field := range promptOrder {
		v, ok := values[field]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(field)
		b.WriteString(": ")
		b.WriteString(v)
	}
	return b.String()
}

func (r *Record) String() string {
	amount := "nil"
	if r.Amount != nil {
		amount = strconv.FormatFloat(*r.Amount, 'f', 2, 64)
	}
	return fmt.Sprintf("Receipt(ID=%d, Number=%s, Status=%s, Amount=%s)", r.ID, r.ReceiptNumber, r.Status, amount)
}

func putInt64(values map[string]string, field string, v *int64) {
	if v != nil {
		values[field] = strconv.FormatInt(*v, 10)
	}
}

// SortedExtraKeys returns the unrecognized column names in stable order,
// mainly for logging.
func (r *Record) SortedExtraKeys() []string {
	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

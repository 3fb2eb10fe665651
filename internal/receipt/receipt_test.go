package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRowMapsTypedFields(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	row := map[string]any{
		"ID":             int64(42),
		"RECEIPT_NUMBER": "RCP-001",
		"AMOUNT":         1500.50,
		"STATUS":         "U",
		"MONTH":          int64(3),
		"YEAR":           int64(2024),
		"EMPLOYER_ID":    int64(7),
		"OFFICE_ID":      int64(2),
		"SCHEME_ID":      int64(9),
		"MAIN_SCHEME_ID": int64(4),
		"RECEIPT_TYPE":   "1",
		"APPORTION_TYPE": "Auto",
		"RECEIPT_DATE":   date,
		"PENALTY_ID":     nil,
	}

	rec := FromRow(row)

	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, "RCP-001", rec.ReceiptNumber)
	require.NotNil(t, rec.Amount)
	assert.Equal(t, 1500.50, *rec.Amount)
	assert.Equal(t, "U", rec.Status)
	require.NotNil(t, rec.Month)
	assert.Equal(t, 3, *rec.Month)
	require.NotNil(t, rec.Year)
	assert.Equal(t, 2024, *rec.Year)
	require.NotNil(t, rec.EmployerID)
	assert.Equal(t, int64(7), *rec.EmployerID)
	require.NotNil(t, rec.ReceiptDate)
	assert.True(t, rec.ReceiptDate.Equal(date))
	assert.Nil(t, rec.PenaltyID)
	assert.Nil(t, rec.AdjustmentID)
}

func TestFromRowNormalizesKeyCaseOnce(t *testing.T) {
	rec := FromRow(map[string]any{
		"id":             int64(1),
		"receipt_number": "r-1",
		"Status":         "u",
	})

	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "r-1", rec.ReceiptNumber)
	assert.Equal(t, "U", rec.Status)
}

func TestFromRowKeepsUnknownColumnsInExtra(t *testing.T) {
	rec := FromRow(map[string]any{
		"ID":          int64(1),
		"DSIS_FLAG":   "Y",
		"source_pro":  "LEGACY",
		"MEMSALARY_X": 12.5,
	})

	require.Len(t, rec.Extra, 3)
	assert.Equal(t, "Y", rec.Extra["DSIS_FLAG"])
	assert.Equal(t, "LEGACY", rec.Extra["SOURCE_PRO"])
	assert.Equal(t, []string{"DSIS_FLAG", "MEMSALARY_X", "SOURCE_PRO"}, rec.SortedExtraKeys())
}

func TestFromRowCoercesStringNumerics(t *testing.T) {
	rec := FromRow(map[string]any{
		"ID":     "17",
		"AMOUNT": "99.95",
		"MONTH":  "11",
	})

	assert.Equal(t, int64(17), rec.ID)
	require.NotNil(t, rec.Amount)
	assert.Equal(t, 99.95, *rec.Amount)
	require.NotNil(t, rec.Month)
	assert.Equal(t, 11, *rec.Month)
}

func TestFromRowParsesTextTimestamps(t *testing.T) {
	rec := FromRow(map[string]any{
		"ID":           int64(1),
		"RECEIPT_DATE": "2024-03-15",
		"DELETED_AT":   "2024-04-01 10:30:00",
	})

	require.NotNil(t, rec.ReceiptDate)
	assert.Equal(t, 2024, rec.ReceiptDate.Year())
	assert.Equal(t, time.March, rec.ReceiptDate.Month())
	require.NotNil(t, rec.DeletedAt)
	assert.Equal(t, time.April, rec.DeletedAt.Month())
}

func TestPromptFieldsOmitsAbsentAndKeepsOrder(t *testing.T) {
	amount := 100.0
	month := 5
	year := 2024
	rec := &Record{
		ID:            3,
		ReceiptNumber: "RCP-3",
		Status:        "U",
		Amount:        &amount,
		Month:         &month,
		Year:          &year,
	}

	got := rec.PromptFields()
	want := "ID: 3\nRECEIPT_NUMBER: RCP-3\nSTATUS: U\nAMOUNT: 100\nMONTH: 5\nYEAR: 2024"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "PENALTY_ID")
}

func TestPromptFieldsIncludesLinkageWhenPresent(t *testing.T) {
	penalty := int64(12)
	rec := &Record{ID: 1, PenaltyID: &penalty}

	got := rec.PromptFields()
	assert.Contains(t, got, "PENALTY_ID: 12")
	assert.NotContains(t, got, "ADJUSTMENT_ID")
}

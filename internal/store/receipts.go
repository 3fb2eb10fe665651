package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
)

// ReceiptStore exposes the typed receipt operations the pipeline needs,
// built on one shared Gateway. SQL is assembled here so dialect details
// never leak into the pipeline packages.
type ReceiptStore struct {
	gw    Gateway
	table string
}

// NewReceiptStore wraps a gateway. An empty table falls back to
// DefaultTable.
func NewReceiptStore(gw Gateway, table string) *ReceiptStore {
	if table == "" {
		table = DefaultTable
	}
	return &ReceiptStore{gw: gw, table: table}
}

// Unreconciled returns every receipt row still in the unreconciled
// status, in ascending ID order. A query failure returns a nil slice and
// the error; zero matching rows return an empty slice.
func (s *ReceiptStore) Unreconciled(ctx context.Context) ([]Row, error) {
	d := s.gw.Dialect()
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE STATUS = %s ORDER BY ID",
		s.table, d.Placeholder(1),
	)
	rows, err := s.gw.Query(ctx, query, receipt.StatusUnreconciled)
	if err != nil {
		return nil, fmt.Errorf("unreconciled receipts: %w", err)
	}
	return rows, nil
}

// DuplicateKey identifies the unique-constraint fields used for duplicate
// detection. PenaltyID and AdjustmentID are nullable and compared with
// null-aware equality: two NULLs match.
type DuplicateKey struct {
	ID            int64
	ReceiptNumber string
	Month         int
	Year          int
	EmployerID    int64
	ReceiptType   string
	PenaltyID     *int64
	AdjustmentID  *int64
}

// CountReconciledDuplicates counts already-reconciled rows sharing the
// key, excluding the record itself.
func (s *ReceiptStore) CountReconciledDuplicates(ctx context.Context, key DuplicateKey) (int, error) {
	d := s.gw.Dialect()
	p := func(n int) string { return d.Placeholder(n) }

	query := fmt.Sprintf(`SELECT COUNT(*) AS DUPLICATE_COUNT FROM %s
WHERE STATUS = %s
AND ID != %s
AND RECEIPT_NUMBER = %s
AND MONTH = %s
AND YEAR = %s
AND EMPLOYER_ID = %s
AND RECEIPT_TYPE = %s
AND (PENALTY_ID = %s OR (PENALTY_ID IS NULL AND %s IS NULL))
AND (ADJUSTMENT_ID = %s OR (ADJUSTMENT_ID IS NULL AND %s IS NULL))`,
		s.table,
		p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8), p(9), p(10), p(11),
	)

	penalty := nullableInt64(key.PenaltyID)
	adjustment := nullableInt64(key.AdjustmentID)

	rows, err := s.gw.Query(ctx, query,
		receipt.StatusReconciled,
		key.ID,
		key.ReceiptNumber,
		key.Month,
		key.Year,
		key.EmployerID,
		key.ReceiptType,
		penalty, penalty,
		adjustment, adjustment,
	)
	if err != nil {
		return 0, fmt.Errorf("duplicate count: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return scanCount(rows[0])
}

// MarkReconciled transitions one record to the reconciled status, stamping
// update and reconciliation timestamps and the system actor marker. The
// statement shape is fixed: downstream readers of the store depend on it.
// Re-applying to an already-reconciled record leaves the same final state.
func (s *ReceiptStore) MarkReconciled(ctx context.Context, id int64) error {
	d := s.gw.Dialect()
	now := d.NowExpr()
	query := fmt.Sprintf(
		"UPDATE %s SET STATUS = %s, UPDATED_AT = %s, RECONCILED_AT = %s, RECONCILED_BY = %s WHERE ID = %s",
		s.table, d.Placeholder(1), now, now, d.Placeholder(2), d.Placeholder(3),
	)
	if err := s.gw.Update(ctx, query, receipt.StatusReconciled, receipt.SystemActor, id); err != nil {
		return fmt.Errorf("mark reconciled %d: %w", id, err)
	}
	return nil
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// scanCount pulls the single COUNT(*) value out of a row regardless of
// the column name casing the driver reports.
func scanCount(row Row) (int, error) {
	for _, v := range row {
		switch t := v.(type) {
		case int64:
			return int(t), nil
		case int:
			return t, nil
		case float64:
			return int(t), nil
		case string:
			n, err := strconv.Atoi(t)
			if err != nil {
				return 0, fmt.Errorf("count value %q: %w", t, err)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("count column missing in result row")
}

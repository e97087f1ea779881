package sync

import (
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RecordSet is a tabular query result: ordered column names plus positional
// rows. Rows keep whatever Go values the driver produced; accessors below
// coerce the columns the synchronizer cares about.
type RecordSet struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the result has no rows.
func (rs *RecordSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

// ColumnIndex resolves a column by name, ignoring case. Names are NFC
// normalized before folding so that differently composed Unicode spellings
// of the same identifier still match.
func (rs *RecordSet) ColumnIndex(name string) (int, bool) {
	want := norm.NFC.String(name)
	for i, col := range rs.Columns {
		if strings.EqualFold(norm.NFC.String(col), want) {
			return i, true
		}
	}
	return 0, false
}

// scanRecordSet drains rows into a RecordSet. The caller keeps ownership of
// rows and must still check rows.Err via the returned error.
func scanRecordSet(rows *sql.Rows) (*RecordSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	rs := &RecordSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		dests := make([]any, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

// int64At reads row[idx] as an int64. Returns ok=false for NULL or any value
// that is not an integral number.
func int64At(row []any, idx int) (int64, bool) {
	switch v := row[idx].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		// Some drivers hand back numeric columns as floats.
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// int32At reads row[idx] as an int32 nested-set coordinate.
func int32At(row []any, idx int) (int32, bool) {
	v, ok := int64At(row, idx)
	if !ok {
		return 0, false
	}
	return int32(v), true
}

package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/treefold/treefold/internal/dialect"
)

// Conn is the slice of database/sql behavior a cycle needs. *sql.DB,
// *sql.Tx, and *sql.Conn all satisfy it; the synchronizer itself never
// commits, so callers decide the transaction boundary.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// logQuerier reads the committed offset and the log entries past it.
type logQuerier struct {
	d dialect.Dialect

	logTable string
	logPK    string

	offsetTable    string
	logTableColumn string
	offsetColumn   string
}

// committedOffset returns the highest log id already folded into the live
// table. A missing offset row means nothing has been folded yet.
func (q *logQuerier) committedOffset(ctx context.Context, conn Conn) (int64, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		q.d.QuoteIdentifier(q.offsetColumn),
		q.d.QuoteIdentifier(q.offsetTable),
		q.d.QuoteIdentifier(q.logTableColumn),
		q.d.Placeholder(1))

	var offset int64
	err := conn.QueryRowContext(ctx, query, q.logTable).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read log offset for %s: %w", q.logTable, err)
	}
	return offset, nil
}

// pendingAfter returns every log row with a log id beyond offset. No
// ordering is requested; downstream never relies on row order.
func (q *logQuerier) pendingAfter(ctx context.Context, conn Conn, offset int64) (*RecordSet, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s > %s",
		q.d.QuoteIdentifier(q.logTable),
		q.d.QuoteIdentifier(q.logPK),
		q.d.Placeholder(1))

	rows, err := conn.QueryContext(ctx, query, offset)
	if err != nil {
		return nil, fmt.Errorf("query pending log entries from %s: %w", q.logTable, err)
	}
	defer rows.Close()

	rs, err := scanRecordSet(rows)
	if err != nil {
		return nil, fmt.Errorf("read pending log entries from %s: %w", q.logTable, err)
	}
	return rs, nil
}

// tableQuerier full-scans the live nested-set table.
type tableQuerier struct {
	d     dialect.Dialect
	table string
}

func (q *tableQuerier) all(ctx context.Context, conn Conn) (*RecordSet, error) {
	query := fmt.Sprintf("SELECT * FROM %s", q.d.QuoteIdentifier(q.table))

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query table %s: %w", q.table, err)
	}
	defer rows.Close()

	rs, err := scanRecordSet(rows)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", q.table, err)
	}
	return rs, nil
}

package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/treefold/treefold/internal/dialect"
)

// applier turns the partitioned survivors into batched statements against
// the live table and records the new log offset. Everything runs on the
// caller's connection; commit stays with the orchestrator so the append path
// can share the same transaction.
type applier struct {
	d dialect.Dialect

	table   string
	tablePK string

	logTable string

	offsetTable    string
	logTableColumn string
	offsetColumn   string
}

// apply executes, in order: the offset upsert, the inserts, the updates,
// and finally the deletes. Deletes go last so a parent is never transiently
// missing while a child from the same cycle is being inserted.
func (a *applier) apply(
	ctx context.Context,
	conn Conn,
	logColumns []string,
	logIDIdx, opIdx, nodeIDIdx int,
	p partitions,
	latestLogID int64,
) error {
	if err := a.upsertOffset(ctx, conn, latestLogID); err != nil {
		return err
	}
	if err := a.insert(ctx, conn, logColumns, logIDIdx, opIdx, p.inserts); err != nil {
		return err
	}
	if err := a.update(ctx, conn, logColumns, logIDIdx, opIdx, nodeIDIdx, p.updates); err != nil {
		return err
	}
	if err := a.delete(ctx, conn, nodeIDIdx, p.deletes); err != nil {
		return err
	}
	return nil
}

// upsertOffset advances the committed offset to the highest fetched log id.
func (a *applier) upsertOffset(ctx context.Context, conn Conn, latestLogID int64) error {
	query := a.d.UpsertStatement(a.offsetTable,
		[]string{a.logTableColumn},
		[]string{a.offsetColumn})

	slog.Debug("advancing log offset",
		"log_table", a.logTable,
		"offset", latestLogID,
	)
	if _, err := conn.ExecContext(ctx, query, a.logTable, latestLogID); err != nil {
		return fmt.Errorf("upsert log offset for %s to %d: %w", a.logTable, latestLogID, err)
	}
	return nil
}

// insert copies new rows from the log into the live table. The live table
// columns are the log columns minus the log primary key and the operation
// code, in log-column order.
func (a *applier) insert(ctx context.Context, conn Conn, logColumns []string, logIDIdx, opIdx int, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	columns, indexes := copiedColumns(logColumns, logIDIdx, opIdx, -1)
	query := a.d.InsertStatement(a.table, columns)
	slog.Debug("batch insert", "table", a.table, "rows", len(rows), "sql", query)

	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", a.table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, 0, len(indexes))
		for _, i := range indexes {
			args = append(args, row[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s (batch of %d): %w", a.table, len(rows), err)
		}
	}
	return nil
}

// update rewrites existing rows keyed by node id. The node id column moves
// from the SET list into the WHERE clause.
func (a *applier) update(ctx context.Context, conn Conn, logColumns []string, logIDIdx, opIdx, nodeIDIdx int, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	columns, indexes := copiedColumns(logColumns, logIDIdx, opIdx, nodeIDIdx)
	query := a.d.UpdateStatement(a.table, a.tablePK, columns)
	slog.Debug("batch update", "table", a.table, "rows", len(rows), "sql", query)

	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare update of %s: %w", a.table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, 0, len(indexes)+1)
		for _, i := range indexes {
			args = append(args, row[i])
		}
		args = append(args, row[nodeIDIdx])
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("update %s (batch of %d): %w", a.table, len(rows), err)
		}
	}
	return nil
}

// delete removes rows keyed by node id. Absent ids affect zero rows, which
// keeps deletes idempotent.
func (a *applier) delete(ctx context.Context, conn Conn, nodeIDIdx int, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	query := a.d.DeleteStatement(a.table, a.tablePK)
	slog.Debug("batch delete", "table", a.table, "rows", len(rows), "sql", query)

	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare delete from %s: %w", a.table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row[nodeIDIdx]); err != nil {
			return fmt.Errorf("delete from %s (batch of %d): %w", a.table, len(rows), err)
		}
	}
	return nil
}

// copiedColumns returns the log columns that participate in a copy to the
// live table, skipping up to three excluded positions, together with their
// source indexes. Pass -1 to skip nothing for a slot.
func copiedColumns(logColumns []string, exclude1, exclude2, exclude3 int) ([]string, []int) {
	columns := make([]string, 0, len(logColumns))
	indexes := make([]int, 0, len(logColumns))
	for i, col := range logColumns {
		if i == exclude1 || i == exclude2 || i == exclude3 {
			continue
		}
		columns = append(columns, col)
		indexes = append(indexes, i)
	}
	return columns, indexes
}

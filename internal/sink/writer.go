package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/treefold/treefold/internal/config"
	"github.com/treefold/treefold/internal/dialect"
	"github.com/treefold/treefold/internal/sync"
)

// Writer appends change records to the destination's log table. It never
// touches the live table; folding the log forward is the synchronizer's job.
type Writer struct {
	cfg *config.Config
	d   dialect.Dialect
}

// NewWriter builds a writer for the destination described by cfg.
func NewWriter(cfg *config.Config, d dialect.Dialect) *Writer {
	return &Writer{cfg: cfg, d: d}
}

// Append writes the batch into the log table on the caller's connection.
// The log primary key is assigned by the database; the statement covers the
// operation code, the node columns, and the union of payload keys across
// the batch in sorted order.
func (w *Writer) Append(ctx context.Context, conn sync.Conn, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	payloadKeys := collectPayloadKeys(records)
	columns := make([]string, 0, 4+len(payloadKeys))
	columns = append(columns,
		w.cfg.Log.OperationColumn,
		w.cfg.Table.PKColumn,
		w.cfg.Table.LeftColumn,
		w.cfg.Table.RightColumn,
	)
	columns = append(columns, payloadKeys...)

	query := w.d.InsertStatement(w.cfg.Log.Table, columns)
	slog.Debug("appending to log table",
		"log_table", w.cfg.Log.Table,
		"records", len(records),
		"sql", query,
	)

	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare append into %s: %w", w.cfg.Log.Table, err)
	}
	defer stmt.Close()

	for _, r := range records {
		args, err := w.logValues(r, payloadKeys)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("append into %s (batch of %d): %w", w.cfg.Log.Table, len(records), err)
		}
	}
	return nil
}

// logValues lays out one record in the same order as the statement columns.
// Deletes write NULL coordinates; the synchronizer never reads them.
func (w *Writer) logValues(r Record, payloadKeys []string) ([]any, error) {
	var code int
	switch r.Op {
	case OpUpsert:
		code = w.cfg.Operations.Upsert
	case OpDelete:
		code = w.cfg.Operations.Delete
	default:
		return nil, fmt.Errorf("record for node %d has unsupported operation %v", r.ID, r.Op)
	}

	args := make([]any, 0, 4+len(payloadKeys))
	args = append(args, code, r.ID)
	if r.Op == OpDelete {
		args = append(args, nil, nil)
	} else {
		args = append(args, r.Left, r.Right)
	}
	for _, key := range payloadKeys {
		if v, ok := r.Payload[key]; ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	return args, nil
}

// collectPayloadKeys returns the sorted union of payload keys in the batch.
func collectPayloadKeys(records []Record) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for key := range r.Payload {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package sync

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/treefold/treefold/internal/config"
	"github.com/treefold/treefold/internal/dialect"
	"github.com/treefold/treefold/internal/tree"
)

// Synchronizer folds pending log entries into the live nested-set table.
// It is stateless between cycles: every call re-reads the offset, the log,
// and the live table.
type Synchronizer struct {
	cfg  *config.Config
	d    dialect.Dialect
	logs logQuerier
	live tableQuerier
	app  applier
}

// New builds a synchronizer for the destination described by cfg.
func New(cfg *config.Config, d dialect.Dialect) *Synchronizer {
	return &Synchronizer{
		cfg: cfg,
		d:   d,
		logs: logQuerier{
			d:              d,
			logTable:       cfg.Log.Table,
			logPK:          cfg.Log.PKColumn,
			offsetTable:    cfg.Offset.Table,
			logTableColumn: cfg.Offset.LogTableColumn,
			offsetColumn:   cfg.Offset.OffsetColumn,
		},
		live: tableQuerier{d: d, table: cfg.Table.Name},
		app: applier{
			d:              d,
			table:          cfg.Table.Name,
			tablePK:        cfg.Table.PKColumn,
			logTable:       cfg.Log.Table,
			offsetTable:    cfg.Offset.Table,
			logTableColumn: cfg.Offset.LogTableColumn,
			offsetColumn:   cfg.Offset.OffsetColumn,
		},
	}
}

// Result describes the outcome of one cycle.
type Result struct {
	// Pending is the number of log entries fetched past the offset.
	Pending int

	// Applied is true when the cycle wrote to the live table and advanced
	// the offset. False means nothing was pending or the cycle was skipped.
	Applied bool

	// Skipped carries the soft-invalid reason when the cycle was a no-op
	// despite pending entries.
	Skipped string

	Inserts int
	Updates int
	Deletes int

	// Offset is the committed offset after the cycle.
	Offset int64
}

// Synchronize runs one cycle inside its own transaction. A soft-invalid
// cycle commits the empty transaction; a fatal error rolls back.
func (s *Synchronizer) Synchronize(ctx context.Context, db *sql.DB) (Result, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin synchronization transaction: %w", err)
	}

	res, err := s.SynchronizeIn(ctx, tx)
	if err != nil {
		tx.Rollback()
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit synchronization transaction: %w", err)
	}
	return res, nil
}

// SynchronizeIn runs one cycle on the caller's connection without
// committing. Used by the sink task to share a transaction with the append
// path.
func (s *Synchronizer) SynchronizeIn(ctx context.Context, conn Conn) (Result, error) {
	cycle := uuid.Must(uuid.NewV7()).String()
	log := slog.With(
		"cycle", cycle,
		"table", s.cfg.Table.Name,
		"log_table", s.cfg.Log.Table,
	)

	offset, err := s.logs.committedOffset(ctx, conn)
	if err != nil {
		return Result{}, err
	}

	pending, err := s.logs.pendingAfter(ctx, conn, offset)
	if err != nil {
		return Result{}, err
	}
	if pending.Empty() {
		log.Debug("no pending log entries", "offset", offset)
		return Result{Offset: offset}, nil
	}
	log.Info("pending log entries to synchronize",
		"count", len(pending.Rows),
		"offset", offset,
	)
	res := Result{Pending: len(pending.Rows), Offset: offset}

	logIDIdx, err := requireColumn(pending, s.cfg.Log.Table, s.cfg.Log.PKColumn)
	if err != nil {
		return res, err
	}
	opIdx, err := requireColumn(pending, s.cfg.Log.Table, s.cfg.Log.OperationColumn)
	if err != nil {
		return res, err
	}
	nodeIDIdx, err := requireColumn(pending, s.cfg.Log.Table, s.cfg.Table.PKColumn)
	if err != nil {
		return res, err
	}
	leftIdx, err := requireColumn(pending, s.cfg.Log.Table, s.cfg.Table.LeftColumn)
	if err != nil {
		return res, err
	}
	rightIdx, err := requireColumn(pending, s.cfg.Log.Table, s.cfg.Table.RightColumn)
	if err != nil {
		return res, err
	}

	survivors, err := deduplicate(pending.Rows, s.cfg.Log.Table, logIDIdx, nodeIDIdx)
	if err != nil {
		return res, err
	}
	log.Debug("deduplicated pending entries", "survivors", len(survivors))

	upserts := filterByOp(survivors, opIdx, s.cfg.Operations.Upsert)
	if bad := invalidCoordinates(upserts, nodeIDIdx, leftIdx, rightIdx); len(bad) > 0 {
		log.Warn("skipping cycle: log entries carry invalid nested-set coordinates",
			"node_ids", bad,
		)
		res.Skipped = "invalid coordinates in log entries"
		return res, nil
	}

	liveRecords, err := s.live.all(ctx, conn)
	if err != nil {
		return res, err
	}
	liveID, err := requireColumn(liveRecords, s.cfg.Table.Name, s.cfg.Table.PKColumn)
	if err != nil {
		return res, err
	}
	liveLeft, err := requireColumn(liveRecords, s.cfg.Table.Name, s.cfg.Table.LeftColumn)
	if err != nil {
		return res, err
	}
	liveRight, err := requireColumn(liveRecords, s.cfg.Table.Name, s.cfg.Table.RightColumn)
	if err != nil {
		return res, err
	}
	if bad := invalidCoordinates(liveRecords.Rows, liveID, liveLeft, liveRight); len(bad) > 0 {
		log.Warn("skipping cycle: live table rows carry invalid nested-set coordinates",
			"node_ids", bad,
		)
		res.Skipped = "invalid coordinates in live table"
		return res, nil
	}

	projected, err := s.projectedForest(liveRecords, liveID, liveLeft, liveRight,
		survivors, nodeIDIdx, opIdx, leftIdx, rightIdx)
	if err != nil {
		return res, err
	}
	if !tree.Valid(projected) {
		log.Warn("skipping cycle: projected state is not a nested-set forest",
			"projected_nodes", len(projected),
		)
		res.Skipped = "projected state is not a nested set"
		return res, nil
	}

	liveIDs := make(map[int64]bool, len(liveRecords.Rows))
	for _, row := range liveRecords.Rows {
		id, _ := int64At(row, liveID)
		liveIDs[id] = true
	}

	parts, err := s.partition(survivors, opIdx, nodeIDIdx, liveIDs)
	if err != nil {
		return res, err
	}

	// The offset anchors on the pre-dedup maximum: a superseded entry has
	// been absorbed even though it was never applied as a row change.
	latest, err := maxLogID(pending.Rows, s.cfg.Log.Table, logIDIdx)
	if err != nil {
		return res, err
	}

	if err := s.app.apply(ctx, conn, pending.Columns,
		logIDIdx, opIdx, nodeIDIdx, parts, latest); err != nil {
		return res, err
	}

	res.Applied = true
	res.Inserts = len(parts.inserts)
	res.Updates = len(parts.updates)
	res.Deletes = len(parts.deletes)
	res.Offset = latest

	log.Info("cycle applied",
		"inserts", res.Inserts,
		"updates", res.Updates,
		"deletes", res.Deletes,
		"offset", latest,
	)
	return res, nil
}

// requireColumn resolves a configured column against a result set.
func requireColumn(rs *RecordSet, table, column string) (int, error) {
	idx, ok := rs.ColumnIndex(column)
	if !ok {
		return 0, &SchemaError{Table: table, Column: column}
	}
	return idx, nil
}

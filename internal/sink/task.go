package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/treefold/treefold/internal/config"
	"github.com/treefold/treefold/internal/dialect"
	"github.com/treefold/treefold/internal/sync"
)

// Task owns one destination: its database handle, the log writer, and the
// synchronizer. A task is single-threaded; run one task per destination and
// they share nothing.
type Task struct {
	cfg    *config.Config
	db     *sql.DB
	d      dialect.Dialect
	writer *Writer
	syncer *sync.Synchronizer
}

// Open connects to the configured database, applies engine pragmas,
// bootstraps the schema, and returns a ready task. The payload columns are
// only used when tables have to be created.
func Open(cfg *config.Config, payload []Column) (*Task, error) {
	d, err := dialect.New(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName(cfg.Dialect), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DSN, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database %s: %w", cfg.DSN, err)
	}

	if d.Name() == "sqlite" {
		// One writer at a time keeps SQLITE_BUSY out of the apply path.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applySQLitePragmas(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	task, err := New(db, cfg, d, payload)
	if err != nil {
		db.Close()
		return nil, err
	}
	return task, nil
}

// New builds a task around an existing database handle. The task takes over
// the handle; Close releases it.
func New(db *sql.DB, cfg *config.Config, d dialect.Dialect, payload []Column) (*Task, error) {
	if err := EnsureSchema(context.Background(), db, cfg, d, payload); err != nil {
		return nil, err
	}
	return &Task{
		cfg:    cfg,
		db:     db,
		d:      d,
		writer: NewWriter(cfg, d),
		syncer: sync.New(cfg, d),
	}, nil
}

// Close releases the database handle.
func (t *Task) Close() error {
	if t.db == nil {
		return nil
	}
	return t.db.Close()
}

// DB exposes the underlying handle for tests and tooling.
func (t *Task) DB() *sql.DB { return t.db }

// Put appends a batch to the log table and folds the log forward, both in
// one transaction so the sink never holds appended-but-unfolded state the
// synchronizer has already decided on. Failed attempts are retried up to
// max_retries with retry_backoff between attempts.
func (t *Task) Put(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	remaining := t.cfg.MaxRetries
	for {
		err := t.putOnce(ctx, records)
		if err == nil {
			return nil
		}
		if remaining == 0 {
			return fmt.Errorf("write of %d records failed after %d retries: %w",
				len(records), t.cfg.MaxRetries, err)
		}
		slog.Warn("write of records failed, retrying",
			"records", len(records),
			"remaining_retries", remaining,
			"error", err,
		)
		remaining--

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.cfg.RetryBackoff.Std()):
		}
	}
}

func (t *Task) putOnce(ctx context.Context, records []Record) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sink transaction: %w", err)
	}
	defer tx.Rollback()

	if err := t.writer.Append(ctx, tx, records); err != nil {
		return err
	}
	if _, err := t.syncer.SynchronizeIn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sink transaction: %w", err)
	}
	return nil
}

// Sync runs one standalone synchronization cycle in its own transaction.
func (t *Task) Sync(ctx context.Context) (sync.Result, error) {
	return t.syncer.Synchronize(ctx, t.db)
}

// Run folds the log forward on the configured interval until the context is
// cancelled. Cancellation is observed between cycles.
func (t *Task) Run(ctx context.Context) error {
	interval := t.cfg.SyncInterval.Std()
	slog.Info("sink task starting",
		"table", t.cfg.Table.Name,
		"log_table", t.cfg.Log.Table,
		"interval", interval,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sink task stopping", "table", t.cfg.Table.Name)
			return ctx.Err()
		case <-ticker.C:
			if _, err := t.Sync(ctx); err != nil {
				return err
			}
		}
	}
}

// Status reports the committed offset and the number of unfolded entries.
type Status struct {
	Offset  int64
	Pending int64
}

// Status reads the current offset and pending backlog.
func (t *Task) Status(ctx context.Context) (Status, error) {
	var st Status
	q := t.d.QuoteIdentifier

	offsetQuery := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		q(t.cfg.Offset.OffsetColumn),
		q(t.cfg.Offset.Table),
		q(t.cfg.Offset.LogTableColumn),
		t.d.Placeholder(1))
	err := t.db.QueryRowContext(ctx, offsetQuery, t.cfg.Log.Table).Scan(&st.Offset)
	if err != nil && err != sql.ErrNoRows {
		return Status{}, fmt.Errorf("read log offset: %w", err)
	}

	pendingQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s > %s",
		q(t.cfg.Log.Table),
		q(t.cfg.Log.PKColumn),
		t.d.Placeholder(1))
	if err := t.db.QueryRowContext(ctx, pendingQuery, st.Offset).Scan(&st.Pending); err != nil {
		return Status{}, fmt.Errorf("count pending log entries: %w", err)
	}
	return st, nil
}

// driverName maps a dialect to the database/sql driver the binary links.
func driverName(dialectName string) string {
	switch dialectName {
	case "sqlite", "sqlite3", "":
		return "sqlite3"
	default:
		return dialectName
	}
}

// applySQLitePragmas configures an SQLite handle for sink duty.
func applySQLitePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

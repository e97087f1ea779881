package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/treefold/treefold/internal/config"
	"github.com/treefold/treefold/internal/dialect"
	"github.com/treefold/treefold/internal/sync"
)

// Column describes one payload column when bootstrapping the schema.
type Column struct {
	Name string
	Type string // SQL type, e.g. "TEXT", "BIGINT"
}

// EnsureSchema creates the live, log, and offset tables when they do not
// exist yet. With auto-creation disabled it only probes for them and fails
// on the first missing table.
func EnsureSchema(ctx context.Context, conn sync.Conn, cfg *config.Config, d dialect.Dialect, payload []Column) error {
	if !cfg.AutoCreate {
		for _, table := range []string{cfg.Table.Name, cfg.Log.Table, cfg.Offset.Table} {
			if err := probeTable(ctx, conn, d, table); err != nil {
				return fmt.Errorf("table %s is missing and auto-creation is disabled: %w", table, err)
			}
		}
		return nil
	}

	for _, stmt := range SchemaStatements(cfg, d, payload) {
		slog.Debug("applying schema statement", "sql", stmt)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create sink tables: %w", err)
		}
	}
	return nil
}

// SchemaStatements returns the CREATE TABLE statements for one destination.
func SchemaStatements(cfg *config.Config, d dialect.Dialect, payload []Column) []string {
	q := d.QuoteIdentifier

	payloadDefs := make([]string, 0, len(payload))
	for _, col := range payload {
		payloadDefs = append(payloadDefs, fmt.Sprintf("%s %s", q(col.Name), col.Type))
	}
	payloadSuffix := ""
	if len(payloadDefs) > 0 {
		payloadSuffix = ", " + strings.Join(payloadDefs, ", ")
	}

	live := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s BIGINT PRIMARY KEY, %s INTEGER NOT NULL, %s INTEGER NOT NULL%s)",
		q(cfg.Table.Name),
		q(cfg.Table.PKColumn),
		q(cfg.Table.LeftColumn),
		q(cfg.Table.RightColumn),
		payloadSuffix)

	log := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s %s, %s INTEGER NOT NULL, %s BIGINT NOT NULL, %s INTEGER, %s INTEGER%s)",
		q(cfg.Log.Table),
		q(cfg.Log.PKColumn),
		d.AutoIncrementPK(),
		q(cfg.Log.OperationColumn),
		q(cfg.Table.PKColumn),
		q(cfg.Table.LeftColumn),
		q(cfg.Table.RightColumn),
		payloadSuffix)

	offset := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(255) PRIMARY KEY, %s BIGINT NOT NULL)",
		q(cfg.Offset.Table),
		q(cfg.Offset.LogTableColumn),
		q(cfg.Offset.OffsetColumn))

	return []string{live, log, offset}
}

// probeTable issues a zero-row select to check that a table exists.
func probeTable(ctx context.Context, conn sync.Conn, d dialect.Dialect, table string) error {
	query := fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", d.QuoteIdentifier(table))
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}

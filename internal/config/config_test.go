package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "treefold.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_MinimalFile(t *testing.T) {
	path := writeConfig(t, `
dsn: file:test.db
table:
  name: categories
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file:test.db", cfg.DSN)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, "categories", cfg.Table.Name)

	// Column names fall back to defaults.
	assert.Equal(t, "id", cfg.Table.PKColumn)
	assert.Equal(t, "lft", cfg.Table.LeftColumn)
	assert.Equal(t, "rgt", cfg.Table.RightColumn)
	assert.Equal(t, "log_id", cfg.Log.PKColumn)
	assert.Equal(t, "op", cfg.Log.OperationColumn)

	// The log table name derives from the destination table.
	assert.Equal(t, "categories_log", cfg.Log.Table)

	assert.Equal(t, 0, cfg.Operations.Upsert)
	assert.Equal(t, 1, cfg.Operations.Delete)
	assert.True(t, cfg.AutoCreate)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.RetryBackoff.Std())
	assert.Equal(t, 5*time.Second, cfg.SyncInterval.Std())
}

func TestLoad_FullOverride(t *testing.T) {
	path := writeConfig(t, `
dsn: postgres://sink@db/tree
dialect: postgres
table:
  name: org_units
  pk_column: unit_id
  left_column: span_lo
  right_column: span_hi
log:
  table: org_units_changes
  pk_column: change_id
  operation_column: change_kind
offset:
  table: sink_offsets
  logtable_column: source
  offset_column: applied_through
operations:
  upsert: 10
  delete: 20
auto_create: false
max_retries: 7
retry_backoff: 250ms
sync_interval: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "org_units_changes", cfg.Log.Table)
	assert.Equal(t, "change_kind", cfg.Log.OperationColumn)
	assert.Equal(t, "applied_through", cfg.Offset.OffsetColumn)
	assert.Equal(t, 10, cfg.Operations.Upsert)
	assert.Equal(t, 20, cfg.Operations.Delete)
	assert.False(t, cfg.AutoCreate)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff.Std())
	assert.Equal(t, time.Minute, cfg.SyncInterval.Std())
}

func TestLoad_MissingDSN(t *testing.T) {
	path := writeConfig(t, `
table:
  name: categories
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}

func TestLoad_UnknownDialectRejected(t *testing.T) {
	path := writeConfig(t, `
dsn: file:test.db
dialect: dbase4
table:
  name: categories
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialect")
}

func TestLoad_EqualOperationCodesRejected(t *testing.T) {
	path := writeConfig(t, `
dsn: file:test.db
table:
  name: categories
operations:
  upsert: 1
  delete: 1
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_BadDurationRejected(t *testing.T) {
	path := writeConfig(t, `
dsn: file:test.db
table:
  name: categories
retry_backoff: soon
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_NegativeRetriesRejected(t *testing.T) {
	path := writeConfig(t, `
dsn: file:test.db
table:
  name: categories
max_retries: -1
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_DefaultNeedsDSNAndTable(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate())

	cfg.DSN = "file:x.db"
	cfg.Table.Name = "nodes"
	cfg.applyDerived()
	require.NoError(t, cfg.Validate())
}

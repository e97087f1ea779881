package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefold/treefold/internal/config"
)

var payloadColumns = []Column{{Name: "name", Type: "TEXT"}}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DSN = filepath.Join(t.TempDir(), "sink.db")
	cfg.Table.Name = "categories"
	cfg.Log.Table = "categories_log"
	cfg.RetryBackoff = config.Duration(time.Millisecond)
	return cfg
}

func openTask(t *testing.T) *Task {
	t.Helper()
	task, err := Open(testConfig(t), payloadColumns)
	require.NoError(t, err)
	t.Cleanup(func() { task.Close() })
	return task
}

func TestOpen_CreatesSchema(t *testing.T) {
	task := openTask(t)

	for _, table := range []string{"categories", "categories_log", "nested_set_sync_log_offset"} {
		var name string
		err := task.DB().QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoErrorf(t, err, "table %q not created", table)
	}
}

func TestOpen_AutoCreateDisabledFailsOnMissingTables(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoCreate = false

	_, err := Open(cfg, payloadColumns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto-creation is disabled")
}

func TestOpen_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	for i := 0; i < 3; i++ {
		task, err := Open(cfg, payloadColumns)
		require.NoErrorf(t, err, "open iteration %d", i)
		require.NoError(t, task.Close())
	}
}

func TestPut_AppendsAndFoldsInOneCall(t *testing.T) {
	task := openTask(t)

	err := task.Put(context.Background(), []Record{
		{Op: OpUpsert, ID: 1, Left: 1, Right: 4, Payload: map[string]any{"name": "root"}},
		{Op: OpUpsert, ID: 2, Left: 2, Right: 3, Payload: map[string]any{"name": "child"}},
	})
	require.NoError(t, err)

	rows, err := task.DB().Query(`SELECT id, lft, rgt, name FROM categories ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		ID          int64
		Left, Right int32
		Name        string
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.ID, &r.Left, &r.Right, &r.Name))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []row{{1, 1, 4, "root"}, {2, 2, 3, "child"}}, got)

	st, err := task.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Offset)
	assert.Equal(t, int64(0), st.Pending)
}

func TestPut_InvalidBatchStaysInLog(t *testing.T) {
	task := openTask(t)

	// Overlapping intervals: the append succeeds, the fold is a no-op.
	err := task.Put(context.Background(), []Record{
		{Op: OpUpsert, ID: 1, Left: 1, Right: 3, Payload: map[string]any{"name": "a"}},
		{Op: OpUpsert, ID: 2, Left: 2, Right: 4, Payload: map[string]any{"name": "b"}},
	})
	require.NoError(t, err)

	var liveCount int64
	require.NoError(t, task.DB().QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&liveCount))
	assert.Equal(t, int64(0), liveCount)

	st, err := task.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Offset)
	assert.Equal(t, int64(2), st.Pending)

	// A later batch that repairs the overlap folds everything in.
	err = task.Put(context.Background(), []Record{
		{Op: OpUpsert, ID: 2, Left: 4, Right: 5, Payload: map[string]any{"name": "b"}},
	})
	require.NoError(t, err)

	st, err = task.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Offset)
	assert.Equal(t, int64(0), st.Pending)

	require.NoError(t, task.DB().QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&liveCount))
	assert.Equal(t, int64(2), liveCount)
}

func TestPut_DeleteRecord(t *testing.T) {
	task := openTask(t)
	ctx := context.Background()

	require.NoError(t, task.Put(ctx, []Record{
		{Op: OpUpsert, ID: 1, Left: 1, Right: 4, Payload: map[string]any{"name": "root"}},
		{Op: OpUpsert, ID: 2, Left: 2, Right: 3, Payload: map[string]any{"name": "child"}},
	}))
	require.NoError(t, task.Put(ctx, []Record{
		{Op: OpDelete, ID: 2},
		{Op: OpUpsert, ID: 1, Left: 1, Right: 2, Payload: map[string]any{"name": "root"}},
	}))

	var liveCount int64
	require.NoError(t, task.DB().QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&liveCount))
	assert.Equal(t, int64(1), liveCount)
}

func TestPut_EmptyBatchIsNoOp(t *testing.T) {
	task := openTask(t)
	require.NoError(t, task.Put(context.Background(), nil))

	st, err := task.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Pending)
}

func TestSync_Standalone(t *testing.T) {
	task := openTask(t)
	ctx := context.Background()

	// Append without folding by writing to the log table directly.
	_, err := task.DB().Exec(
		`INSERT INTO categories_log (op, id, lft, rgt, name) VALUES (0, 7, 1, 2, 'solo')`)
	require.NoError(t, err)

	res, err := task.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.Inserts)

	var name string
	require.NoError(t, task.DB().QueryRow(`SELECT name FROM categories WHERE id = 7`).Scan(&name))
	assert.Equal(t, "solo", name)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.SyncInterval = config.Duration(10 * time.Millisecond)
	task, err := Open(cfg, payloadColumns)
	require.NoError(t, err)
	defer task.Close()

	_, err = task.DB().Exec(
		`INSERT INTO categories_log (op, id, lft, rgt, name) VALUES (0, 1, 1, 2, 'bg')`)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err = task.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var liveCount int64
	require.NoError(t, task.DB().QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&liveCount))
	assert.Equal(t, int64(1), liveCount)
}

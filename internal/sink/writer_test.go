package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_WritesOperationCodesAndPayload(t *testing.T) {
	task := openTask(t)
	ctx := context.Background()

	err := task.writer.Append(ctx, task.DB(), []Record{
		{Op: OpUpsert, ID: 1, Left: 1, Right: 2, Payload: map[string]any{"name": "a"}},
		{Op: OpDelete, ID: 2},
	})
	require.NoError(t, err)

	rows, err := task.DB().Query(`SELECT op, id, lft, rgt, name FROM categories_log ORDER BY log_id`)
	require.NoError(t, err)
	defer rows.Close()

	type logRow struct {
		Op   int
		ID   int64
		Left any
		Name any
	}
	var got []logRow
	for rows.Next() {
		var (
			r     logRow
			right any
		)
		require.NoError(t, rows.Scan(&r.Op, &r.ID, &r.Left, &right, &r.Name))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Op)
	assert.Equal(t, int64(1), got[0].ID)
	assert.EqualValues(t, 1, got[0].Left)
	assert.Equal(t, "a", got[0].Name)

	// The delete carries NULL coordinates and payload.
	assert.Equal(t, 1, got[1].Op)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Nil(t, got[1].Left)
	assert.Nil(t, got[1].Name)
}

func TestAppend_CustomOperationCodes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Operations.Upsert = 10
	cfg.Operations.Delete = 20
	task, err := Open(cfg, payloadColumns)
	require.NoError(t, err)
	defer task.Close()

	ctx := context.Background()
	require.NoError(t, task.Put(ctx, []Record{
		{Op: OpUpsert, ID: 5, Left: 1, Right: 2, Payload: map[string]any{"name": "x"}},
	}))

	var op int
	require.NoError(t, task.DB().QueryRow(`SELECT op FROM categories_log WHERE id = 5`).Scan(&op))
	assert.Equal(t, 10, op)

	var liveCount int64
	require.NoError(t, task.DB().QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&liveCount))
	assert.Equal(t, int64(1), liveCount)
}

func TestCollectPayloadKeys_SortedUnion(t *testing.T) {
	keys := collectPayloadKeys([]Record{
		{Payload: map[string]any{"zeta": 1, "alpha": 2}},
		{Payload: map[string]any{"mid": 3}},
		{},
	})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
}

package sync

import (
	"fmt"

	"github.com/treefold/treefold/internal/tree"
)

// coordinateAt reads a nested-set coordinate column. NULL and non-numeric
// values both come back as ok=false; the caller treats them alike.
func coordinateAt(row []any, idx int) (int32, bool) {
	return int32At(row, idx)
}

// invalidCoordinates returns the node ids of every row whose coordinates are
// missing, non-numeric, or not a positive-width interval. An empty result
// means the rows are all well formed.
func invalidCoordinates(rows [][]any, idIdx, leftIdx, rightIdx int) []int64 {
	var bad []int64
	for _, row := range rows {
		left, leftOK := coordinateAt(row, leftIdx)
		right, rightOK := coordinateAt(row, rightIdx)
		if leftOK && rightOK && left < right {
			continue
		}
		id, _ := int64At(row, idIdx)
		bad = append(bad, id)
	}
	return bad
}

// filterByOp returns the rows whose operation code equals code.
func filterByOp(rows [][]any, opIdx int, code int) [][]any {
	var out [][]any
	for _, row := range rows {
		if op, ok := int64At(row, opIdx); ok && int(op) == code {
			out = append(out, row)
		}
	}
	return out
}

// projectedForest merges the dedup survivors into the live table state and
// returns the resulting coordinate multiset: DELETE removes the node id,
// UPSERT inserts or replaces it. The result is what the live table would
// hold after this cycle, ready for the forest check.
func (s *Synchronizer) projectedForest(
	live *RecordSet, liveID, liveLeft, liveRight int,
	survivors [][]any, nodeIDIdx, opIdx, leftIdx, rightIdx int,
) ([]tree.Node, error) {
	projected := make(map[int64]tree.Node, len(live.Rows)+len(survivors))
	for _, row := range live.Rows {
		id, _ := int64At(row, liveID)
		left, _ := coordinateAt(row, liveLeft)
		right, _ := coordinateAt(row, liveRight)
		projected[id] = tree.Node{Left: left, Right: right}
	}

	for _, row := range survivors {
		nodeID, _ := int64At(row, nodeIDIdx)
		op, ok := int64At(row, opIdx)
		if !ok {
			return nil, fmt.Errorf("log table %s: entry for node %d has a non-integer operation code",
				s.cfg.Log.Table, nodeID)
		}
		switch int(op) {
		case s.cfg.Operations.Delete:
			delete(projected, nodeID)
		case s.cfg.Operations.Upsert:
			left, _ := coordinateAt(row, leftIdx)
			right, _ := coordinateAt(row, rightIdx)
			projected[nodeID] = tree.Node{Left: left, Right: right}
		default:
			return nil, &UnknownOperationError{
				Table:  s.cfg.Log.Table,
				Code:   int(op),
				NodeID: nodeID,
			}
		}
	}

	nodes := make([]tree.Node, 0, len(projected))
	for _, n := range projected {
		nodes = append(nodes, n)
	}
	return nodes, nil
}

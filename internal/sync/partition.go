package sync

import "fmt"

// partitions splits the dedup survivors by the statement that will carry
// them into the live table.
type partitions struct {
	inserts [][]any
	updates [][]any
	deletes [][]any
}

// partition routes each survivor by operation code and live-table
// membership. A DELETE for an id the live table does not hold still lands in
// deletes; the statement simply affects zero rows.
func (s *Synchronizer) partition(survivors [][]any, opIdx, nodeIDIdx int, live map[int64]bool) (partitions, error) {
	var p partitions
	for _, row := range survivors {
		nodeID, _ := int64At(row, nodeIDIdx)
		op, ok := int64At(row, opIdx)
		if !ok {
			return partitions{}, fmt.Errorf("log table %s: entry for node %d has a non-integer operation code",
				s.cfg.Log.Table, nodeID)
		}
		switch int(op) {
		case s.cfg.Operations.Delete:
			p.deletes = append(p.deletes, row)
		case s.cfg.Operations.Upsert:
			if live[nodeID] {
				p.updates = append(p.updates, row)
			} else {
				p.inserts = append(p.inserts, row)
			}
		default:
			return partitions{}, &UnknownOperationError{
				Table:  s.cfg.Log.Table,
				Code:   int(op),
				NodeID: nodeID,
			}
		}
	}
	return p, nil
}

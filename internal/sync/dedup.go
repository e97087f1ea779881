package sync

import "fmt"

// deduplicate keeps, for each node id, the log entry with the highest log
// id. Within one cycle only the latest intent per node matters; superseded
// entries may describe states that were never valid and must not be written.
//
// Survivor order is unspecified.
func deduplicate(rows [][]any, logTable string, logIDIdx, nodeIDIdx int) ([][]any, error) {
	latest := make(map[int64][]any, len(rows))
	for _, row := range rows {
		logID, ok := int64At(row, logIDIdx)
		if !ok {
			return nil, fmt.Errorf("log table %s: primary key is not an integer", logTable)
		}
		nodeID, ok := int64At(row, nodeIDIdx)
		if !ok {
			return nil, fmt.Errorf("log table %s: entry %d has a non-integer node id", logTable, logID)
		}

		current, seen := latest[nodeID]
		if !seen {
			latest[nodeID] = row
			continue
		}
		currentLogID, _ := int64At(current, logIDIdx)
		if logID > currentLogID {
			latest[nodeID] = row
		}
	}

	survivors := make([][]any, 0, len(latest))
	for _, row := range latest {
		survivors = append(survivors, row)
	}
	return survivors, nil
}

// maxLogID returns the highest log id among the given rows. The offset is
// anchored on the pre-dedup maximum, so superseded entries count as absorbed
// even though they are never applied as row changes.
func maxLogID(rows [][]any, logTable string, logIDIdx int) (int64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("log table %s: no rows to take the offset from", logTable)
	}
	var max int64
	for i, row := range rows {
		id, ok := int64At(row, logIDIdx)
		if !ok {
			return 0, fmt.Errorf("log table %s: primary key is not an integer", logTable)
		}
		if i == 0 || id > max {
			max = id
		}
	}
	return max, nil
}

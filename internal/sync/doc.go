// Package sync folds pending change-log entries into a nested-set table.
//
// The destination table encodes a forest with left/right interval
// coordinates, so individual log entries cannot be applied as they arrive:
// an intermediate state is usually not a valid nested set. Instead, a cycle
// reads every log entry past the committed offset, keeps only the latest
// entry per node, projects the resulting table state, and applies the whole
// batch in one transaction only when the projection still reconstructs into
// a forest.
//
// A cycle that observes malformed coordinates or an invalid projected forest
// is a deliberate no-op: nothing is written, the offset stays put, and a
// later cycle retries once the upstream has corrected itself.
package sync

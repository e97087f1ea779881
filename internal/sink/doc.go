// Package sink is the write-side of the nested-set pipeline.
//
// Incoming change records are never written straight into the nested-set
// table; they are appended to the destination's log table and folded in by
// the synchronizer once the projected state validates. The Task ties the
// two stages together: one transaction appends a batch and runs a
// synchronization cycle, so the log and the live table move in lockstep.
package sink

package sink

import "fmt"

// Op is the intent carried by a change record.
type Op int

const (
	// OpUpsert inserts or replaces a node.
	OpUpsert Op = iota
	// OpDelete removes a node. Coordinates and payload are ignored.
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpUpsert:
		return "upsert"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Record is one per-node change produced upstream.
type Record struct {
	Op    Op
	ID    int64
	Left  int32
	Right int32

	// Payload holds the remaining columns by name. Keys missing from one
	// record are written as NULL.
	Payload map[string]any
}

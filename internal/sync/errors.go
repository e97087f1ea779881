package sync

import (
	"errors"
	"fmt"
)

// SchemaError reports a table that is missing a column the configuration
// requires. It is fatal: the cycle aborts and nothing is committed.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s is missing the expected column %s", e.Table, e.Column)
}

// UnknownOperationError reports a log entry whose operation code matches
// neither the configured upsert nor delete code. This means a producer bug
// or a corrupted log, so it is fatal rather than a soft no-op.
type UnknownOperationError struct {
	Table  string
	Code   int
	NodeID int64
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation code %d for node %d in table %s", e.Code, e.NodeID, e.Table)
}

// IsSchemaError reports whether err wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsUnknownOperation reports whether err wraps an UnknownOperationError.
func IsUnknownOperation(err error) bool {
	var ue *UnknownOperationError
	return errors.As(err, &ue)
}

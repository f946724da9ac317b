package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier is returned by a Backend when the storage identifier
// cannot name a single store (empty, or containing a path separator).
var ErrInvalidIdentifier = errors.New("invalid storage identifier")

// SchemaError reports that the Guardian could not create a catalog relation.
// An open that fails with a SchemaError never yields a Handle.
type SchemaError struct {
	// Relation is the catalog relation (or index) whose creation failed.
	Relation string

	// Err is the underlying driver error.
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("create relation %q: %v", e.Relation, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a failed statement on the Query Facade.
type ExecutionError struct {
	// Statement is the SQL text that failed, whitespace-compacted.
	Statement string

	// Err is the underlying driver error.
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %q: %v", e.Statement, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func newExecutionError(stmt string, err error) *ExecutionError {
	return &ExecutionError{Statement: compact(stmt), Err: err}
}

// compact collapses runs of whitespace so multi-line statements read well in logs.
func compact(stmt string) string {
	return strings.Join(strings.Fields(stmt), " ")
}

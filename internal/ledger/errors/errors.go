// Package errors defines the sentinel and typed errors shared across the
// ledger service.
package errors

import (
	"fmt"
)

var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrDuplicateName = fmt.Errorf("duplicate name")
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrCommit        = fmt.Errorf("commit failed")
)

// SchemaError reports a required column missing from an uploaded ledger.
// It aborts the whole upload before any mutation and is surfaced verbatim.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column: %s", e.Column)
}

// RowError reports a single ledger row whose values failed coercion.
// Rows with this error are logged and skipped; processing continues.
type RowError struct {
	Index  int
	Reason error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Reason)
}

func (e *RowError) Unwrap() error {
	return e.Reason
}

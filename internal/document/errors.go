package document

import (
	"errors"
	"fmt"
)

// StaleEditError reports an edit computed against an outdated document
// snapshot. Stale edits are dropped, never retried or queued.
type StaleEditError struct {
	Path     string
	Expected int
	Actual   int
}

// Error implements the error interface.
func (e *StaleEditError) Error() string {
	return fmt.Sprintf("stale edit for %s: expected version %d, document at %d", e.Path, e.Expected, e.Actual)
}

// IsStale reports whether err is a stale-edit rejection.
func IsStale(err error) bool {
	var se *StaleEditError
	return errors.As(err, &se)
}

// OpenError reports a failure to load a document into memory.
type OpenError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("open document %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpenError) Unwrap() error {
	return e.Err
}

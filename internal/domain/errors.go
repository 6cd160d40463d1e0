package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound signals an operation against an unknown property or negotiation.
var ErrNotFound = errors.New("not found")

// ValidationError indicates malformed input or a duplicate active negotiation.
// It is always surfaced synchronously, never swallowed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError indicates an illegal negotiation status change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// CollaboratorError wraps any failure from a catalog, persistence, or
// transport collaborator so callers can tell infrastructure failures apart
// from programming errors.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator: %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

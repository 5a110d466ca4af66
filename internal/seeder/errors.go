// Package seeder implements constraint-aware row synthesis and
// dependency-ordered insertion for goseed.
package seeder

import (
	"fmt"
	"strings"
)

// EmptyPoolError reports a non-nullable foreign-key column with no parent
// rows to reference. Retrying cannot help; the parent must be seeded first
// or the column relaxed.
type EmptyPoolError struct {
	Table     string
	Column    string
	RefSchema string
	RefTable  string
}

func (e *EmptyPoolError) Error() string {
	return fmt.Sprintf("table %s: required foreign key column %q has no candidate rows in %s.%s",
		e.Table, e.Column, e.RefSchema, e.RefTable)
}

// RetryExhaustedError reports that a row satisfying every unique constraint
// could not be produced within the attempt bound.
type RetryExhaustedError struct {
	Table       string
	Attempts    int
	Constraints []string
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("table %s: could not produce a unique row after %d attempts (constraints: %s)",
		e.Table, e.Attempts, strings.Join(e.Constraints, ", "))
}

// ConstraintViolationError is the defensive catch-all for integrity errors
// the backend reports that the engine's own bookkeeping did not anticipate.
// Constraint carries the backend's constraint identifier when it could be
// recovered, otherwise the raw message stands alone.
type ConstraintViolationError struct {
	Table      string
	Constraint string
	Kind       string // unique, foreign_key, not_null, check, or unknown
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("table %s: %s constraint %q violated: %v", e.Table, e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("table %s: %s constraint violated: %v", e.Table, e.Kind, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

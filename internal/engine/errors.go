package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/datalogq/internal/compiler"
)

// RuntimeError represents an error detected while evaluating a query.
//
// Runtime errors include:
//   - Precondition failure: the query did not pass static validation
//   - Recursion: the goal depends on a recursive predicate
//   - Missing predicate: a body literal names a relation that does not exist
//   - Static contradiction: a disequality between two constants reached
//     evaluation
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Rule is the canonical rendering of the rule being evaluated, if any.
	Rule string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodePreconditionFailed indicates the query failed static validation.
	ErrCodePreconditionFailed RuntimeErrorCode = "PRECONDITION_FAILED"

	// ErrCodeMissingPredicate indicates a body literal has no relation.
	ErrCodeMissingPredicate RuntimeErrorCode = "MISSING_PREDICATE"

	// ErrCodeStaticContradiction indicates a constant-to-constant
	// disequality survived equality elimination.
	ErrCodeStaticContradiction RuntimeErrorCode = "STATIC_CONTRADICTION"

	// ErrCodeRecursionDetected indicates the goal depends on a cycle.
	ErrCodeRecursionDetected RuntimeErrorCode = "RECURSION_DETECTED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.Rule)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// PreconditionError carries every validation error that blocked evaluation.
type PreconditionError struct {
	Errors []compiler.ValidationError
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		parts[i] = ve.Error()
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e.Errors), strings.Join(parts, "; "))
}

// IsRecursionError returns true if the error reports a recursive program.
// Uses errors.As to handle wrapped errors.
func IsRecursionError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodeRecursionDetected {
		return true
	}
	var rec *compiler.RecursionError
	return errors.As(err, &rec)
}

// IsPreconditionError returns true if evaluation was refused because the
// query failed static validation.
func IsPreconditionError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodePreconditionFailed {
		return true
	}
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// NewPreconditionError creates a RuntimeError for a failed validation.
func NewPreconditionError(errs []compiler.ValidationError) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodePreconditionFailed,
		Message: "query failed static validation",
		Details: map[string]string{
			"errors": fmt.Sprintf("%d", len(errs)),
		},
		Err: &PreconditionError{Errors: errs},
	}
}

// NewRecursionError creates a RuntimeError for a recursive dependency.
func NewRecursionError(cause *compiler.RecursionError) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeRecursionDetected,
		Message: cause.Error(),
		Details: map[string]string{
			"path": strings.Join(cause.Path, " → "),
		},
		Err: cause,
	}
}

// NewMissingPredicateError creates a RuntimeError for a body literal whose
// relation does not exist.
func NewMissingPredicateError(predicate, rule string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMissingPredicate,
		Message: fmt.Sprintf("no relation for predicate %q", predicate),
		Rule:    rule,
		Details: map[string]string{
			"predicate": predicate,
		},
	}
}

// Package engine implements the declarative reconciliation core: it derives
// the desired resource graph from a blueprint plus an identity snapshot,
// classifies every desired object against the live tenant, and applies or
// tears down the difference idempotently. No local ledger is kept; tags on
// the remote objects are the only durable state.
package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an engine error for abort-vs-continue decisions.
type ErrorClass string

const (
	// ErrorClassValidation indicates a bad blueprint. Fatal before any
	// remote call.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassGuard indicates the blueprint's tenant guard does not match
	// the environment. Fatal before any remote call.
	ErrorClassGuard ErrorClass = "guard"

	// ErrorClassConflict indicates a foreign object occupies a desired
	// name. Recorded, never escalated to fatal, never auto-resolved.
	ErrorClassConflict ErrorClass = "conflict"

	// ErrorClassTransient indicates a network or HTTP failure on a single
	// resource. Recorded as a warning; the run continues.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent indicates a non-recoverable failure such as
	// permission denied or malformed remote data.
	ErrorClassPermanent ErrorClass = "permanent"
)

// Error is a classified engine error with resource context.
type Error struct {
	// Class drives abort-vs-continue handling.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Resource is the resource identifier involved, if applicable.
	Resource string `json:"resource,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Resource != "" && e.Operation != "":
		return fmt.Sprintf("[%s] %s (resource=%s, operation=%s): %s",
			e.Class, e.Message, e.Resource, e.Operation, e.unwrapMessage())
	case e.Resource != "":
		return fmt.Sprintf("[%s] %s (resource=%s): %s", e.Class, e.Message, e.Resource, e.unwrapMessage())
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is matches engine errors by class.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// NewValidationError creates a validation-class error.
func NewValidationError(message string, err error) *Error {
	return &Error{Class: ErrorClassValidation, Message: message, Err: err}
}

// NewGuardError creates a tenant-guard-class error.
func NewGuardError(message string) *Error {
	return &Error{Class: ErrorClassGuard, Message: message}
}

// NewConflictError creates a conflict-class error.
func NewConflictError(message string, err error) *Error {
	return &Error{Class: ErrorClassConflict, Message: message, Err: err}
}

// NewTransientError creates a transient-class error.
func NewTransientError(message string, err error) *Error {
	return &Error{Class: ErrorClassTransient, Message: message, Err: err}
}

// NewPermanentError creates a permanent-class error.
func NewPermanentError(message string, err error) *Error {
	return &Error{Class: ErrorClassPermanent, Message: message, Err: err}
}

// WithResource adds resource context to an error.
func (e *Error) WithResource(resource string) *Error {
	e.Resource = resource
	return e
}

// WithOperation adds operation context to an error.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// IsGuard reports whether err is a tenant-guard failure.
func IsGuard(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Class == ErrorClassGuard
}

// IsValidation reports whether err is a blueprint validation failure.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Class == ErrorClassValidation
}

// IsConflict reports whether err is a foreign-object conflict.
func IsConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Class == ErrorClassConflict
}

// IsFatal reports whether err must abort the run before any mutation.
// Validation and guard failures are fatal; everything else is recorded
// per-resource and the run continues.
func IsFatal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Class == ErrorClassValidation || e.Class == ErrorClassGuard
}

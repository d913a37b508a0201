package service

import "fmt"

// ValidationError reports an intake field that must be a non-negative integer
// but is not. The intake flow catches it and asks the client to re-enter the
// value instead of failing the whole record.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s must be a non-negative number, got %q", e.Field, e.Value)
}

// Code identifies the error class for handler summary logging.
func (e *ValidationError) Code() string { return "VALIDATION" }

// PersistenceError wraps a database failure. It is logged in full and
// surfaced to the chat as a generic message; the record is never retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code identifies the error class for handler summary logging.
func (e *PersistenceError) Code() string { return "PERSISTENCE" }

package types

import (
	"errors"
	"fmt"
)

// ValidationError marks malformed caller input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// TransportError marks an external provider failure: unreachable, non-2xx or
// timeout. Retried with bounded attempts by the caller, then surfaced.
type TransportError struct {
	Provider   string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed after %d attempt(s) (last status %d): %v",
			e.Provider, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError marks an externally-sourced payload that failed structural or
// semantic checks. Never retried automatically; the caller must request
// regeneration.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return e.Reason }

// NewParseError builds a ParseError.
func NewParseError(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError marks a document-store operation failure. Logged, the
// operation aborted, and the batch continues with the next item.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsParse reports whether err is (or wraps) a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors covering the ingestion and assignment flows.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// ErrRowValidation marks a workbook row that fails required-field
	// constraints; the upload is rejected but the process keeps serving.
	ErrRowValidation = New("ROW_VALIDATION_ERROR", http.StatusUnprocessableEntity, "workbook row validation failed")

	// ErrUnresolvedReference marks a fixed-slot row whose subject code has no
	// matching subject record. It aborts the whole fixed-slot batch.
	ErrUnresolvedReference = New("UNRESOLVED_REFERENCE", http.StatusUnprocessableEntity, "fixed slot references unknown subject code")

	// ErrAssignment marks an assignment batch referencing an unknown subject
	// or teacher identifier. Surfaced as a generic server error.
	ErrAssignment = New("ASSIGNMENT_ERROR", http.StatusInternalServerError, "failed to apply teacher assignments")

	// ErrUpstream marks a failed call to the external timetable solver.
	ErrUpstream = New("UPSTREAM_ERROR", http.StatusInternalServerError, "upstream solver request failed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

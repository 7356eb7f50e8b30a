// Package apperrors defines the coded errors returned by the session engine
// and its collaborators.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies an error condition.
type Code string

const (
	// Lifecycle errors
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeNoActiveSession   Code = "NO_ACTIVE_SESSION"
	CodeSessionNotFound   Code = "SESSION_NOT_FOUND"
	CodeSessionStillOpen  Code = "SESSION_STILL_OPEN"

	// Input errors
	CodeInvalidRange Code = "INVALID_RANGE"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Storage and data errors
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
	CodeDataConsistency    Code = "DATA_CONSISTENCY"
	CodeConfigInvalid      Code = "CONFIG_INVALID"
)

// Error is a structured error carrying a code and optional details.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key/value detail and returns e.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// Is reports whether any error in err's chain carries code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Message returns the human-readable part of err without the code prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

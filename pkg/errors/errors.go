package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the kinds of failure a sweep can run into
type ErrorType string

const (
	ErrorTypePointerWrite ErrorType = "pointer_write"
	ErrorTypeLaunch       ErrorType = "launch"
	ErrorTypeExit         ErrorType = "exit"
	ErrorTypeInterrupt    ErrorType = "interrupt"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// ErrInterrupted is returned when a sweep stops because of a stop request
var ErrInterrupted = stderrors.New("sweep interrupted")

// Error represents a sweep error with type information
type Error struct {
	Type     ErrorType
	Index    int
	Message  string
	ExitCode int
	Cause    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error at index %d: %s", e.Type, e.Index, e.Message)
	if e.Type == ErrorTypeExit {
		msg = fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e.Type == ErrorTypeInterrupt && e.Cause == nil {
		return ErrInterrupted
	}
	return e.Cause
}

// New creates a typed error for the given checkpoint index
func New(errType ErrorType, index int, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Index:   index,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var sweepErr *Error
	if stderrors.As(err, &sweepErr) {
		return sweepErr.Type
	}
	if stderrors.Is(err, ErrInterrupted) {
		return ErrorTypeInterrupt
	}
	return ErrorTypeUnknown
}

// IsFatal reports whether an error of the given type ends the sweep.
// Pointer-write and interrupt errors always do; launch and exit errors
// only in strict mode.
func IsFatal(errorType ErrorType, strict bool) bool {
	switch errorType {
	case ErrorTypePointerWrite, ErrorTypeInterrupt, ErrorTypeConfig:
		return true
	case ErrorTypeLaunch, ErrorTypeExit:
		return strict
	default:
		return true
	}
}

// IsRetryable reports whether an error type may be retried by the runner
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeLaunch
}

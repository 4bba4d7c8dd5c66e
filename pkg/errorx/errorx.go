// Package errorx provides an error type that carries a code and a short message meant for the
// person in front of the screen, while still wrapping the underlying cause for the logs.
package errorx

import (
	"errors"
	"fmt"
)

// Error codes. The HTTP front-end maps them to status codes, the TUI only shows the message.
const (
	CodeValidation = 1001
	CodeNotFound   = 1002
	CodeUpload     = 1003
	CodeSave       = 1004
	CodeServerBusy = 1005
)

// CodeError is an error with a code and a user-visible message. It supports errors.Is and
// errors.As on the wrapped cause.
type CodeError struct {
	Code  int
	Msg   string
	cause error
}

// Error returns "msg: cause" if there is a cause, otherwise only the message.
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap returns the wrapped cause.
func (e *CodeError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a CodeError with the same code and message. This lets callers
// compare a wrapped error against a predefined instance.
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Msg == e.Msg
}

// New creates a CodeError without a cause.
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

// Wrap creates a CodeError around err.
//
// Usage:
//
//	return errorx.Wrap(err, errorx.CodeSave, "Error saving contact.")
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg, cause: err}
}

// GetCode extracts the code of the first CodeError in the chain. Any other error is reported as
// CodeServerBusy.
func GetCode(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeServerBusy
}

// Message returns the user-visible message of err. Errors that are not a CodeError must not leak
// their internals, so a generic text is returned for them.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Msg
	}
	return ErrServerBusy.Msg
}

// ErrServerBusy is returned for unexpected failures.
var ErrServerBusy = New(CodeServerBusy, "Something went wrong.")

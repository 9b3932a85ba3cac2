// Package errors provides the coded errors shared by the engine, the CLI,
// and the HTTP service.
//
// A code says what kind of failure happened and, in the API, which status to
// answer with. Graph and placement failures can name the offending node:
//
//	err := errors.New(errors.ErrCodeUnplacedNode, "node has no position").WithNode("msg")
//	errors.NodeOf(err) // "msg"
//
// Codes:
//   - INVALID_*: the input, config, or requested format is unusable
//   - *NOT_FOUND: a file or route does not exist
//   - UNPLACED_NODE: a layout pass left a node without a position
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Layout errors
	ErrCodeUnplacedNode Code = "UNPLACED_NODE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a coded error. Node is set when the failure concerns one node.
type Error struct {
	Code    Code
	Message string
	Node    string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Node != "" {
		msg += fmt.Sprintf(" (node %q)", e.Node)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// WithNode records the node the error is about and returns e.
func (e *Error) WithNode(id string) *Error {
	e.Node = id
	return e
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NodeOf returns the first node named along err's chain, or "".
func NodeOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Node != "" {
			return e.Node
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

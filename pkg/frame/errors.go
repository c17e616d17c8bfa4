package frame

import (
	"errors"
	"fmt"
)

// Code identifies a frame error variant.
type Code string

const (
	CodeMissingName   Code = "MISSING_NAME"
	CodeMissingOwner  Code = "MISSING_OWNER"
	CodeDuplicateName Code = "DUPLICATE_NAME"
	CodeUnknownType   Code = "UNKNOWN_TYPE"
	CodeInvalidTable  Code = "INVALID_TABLE"
	CodeInvalidPeriod Code = "INVALID_PERIOD"
)

// Default message per code.
var defaultMessages = map[Code]string{
	CodeMissingName:   "column definition name is not defined",
	CodeMissingOwner:  "column definition has no owning frame definition",
	CodeDuplicateName: "column definition name is already in use",
	CodeUnknownType:   "dtype string is not recognized",
	CodeInvalidTable:  "table does not conform to the frame definition",
	CodeInvalidPeriod: "interval period is not valid",
}

// Error is the structured error type for definition construction and table
// assignment failures. Each variant carries a code constant and a fixed
// default message; the message may be overridden per instance but matching is
// always by code, so errors.Is(err, ErrDuplicateName) holds regardless of the
// message an error carries.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error returns a formatted error string.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithMessage returns a copy of the error carrying msg in place of the
// default message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// newError creates an Error with the default message for code, optionally
// wrapping a cause.
func newError(code Code, cause error) *Error {
	return &Error{Code: code, Message: defaultMessages[code], Cause: cause}
}

// Match targets for errors.Is, one per variant, each carrying its default
// message. They double as return values where no extra context is needed.
var (
	ErrMissingName   = newError(CodeMissingName, nil)
	ErrMissingOwner  = newError(CodeMissingOwner, nil)
	ErrDuplicateName = newError(CodeDuplicateName, nil)
	ErrUnknownType   = newError(CodeUnknownType, nil)
	ErrInvalidTable  = newError(CodeInvalidTable, nil)
	ErrInvalidPeriod = newError(CodeInvalidPeriod, nil)
)

// GetCode extracts the frame error code from an error chain. It returns the
// empty string if the chain holds no frame Error.
func GetCode(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

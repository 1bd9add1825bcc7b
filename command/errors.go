package command

import (
	"fmt"
)

// Code identifies the kind of failure raised while building or composing commands.
type Code string

// Build and composition error codes.
const (
	CodeInvalidSignature      Code = "invalid_signature"
	CodeInvalidArgument       Code = "invalid_argument"
	CodeInvalidIdentifierList Code = "invalid_identifier_list"
	CodeDuplicateVariant      Code = "duplicate_variant"
	CodeEmptyGroup            Code = "empty_group"
	CodeUnknownCommand        Code = "unknown_command"
	CodeDuplicateCommand      Code = "duplicate_command"
)

// Error is a build or composition failure. It aborts the step that raised it;
// no partially built module is ever returned alongside an Error.
type Error struct {
	Code    Code
	Message string
	// Err is the underlying cause, such as a Go parse error or HCL diagnostics.
	Err error
}

// Sentinel errors for use with errors.Is. They match any *Error with the same code.
var (
	ErrInvalidSignature      = &Error{Code: CodeInvalidSignature, Message: "invalid command signature"}
	ErrInvalidArgument       = &Error{Code: CodeInvalidArgument, Message: "invalid command argument"}
	ErrInvalidIdentifierList = &Error{Code: CodeInvalidIdentifierList, Message: "invalid identifier list"}
	ErrDuplicateVariant      = &Error{Code: CodeDuplicateVariant, Message: "duplicate subcommand"}
	ErrEmptyGroup            = &Error{Code: CodeEmptyGroup, Message: "empty command group"}
	ErrUnknownCommand        = &Error{Code: CodeUnknownCommand, Message: "unknown command"}
	ErrDuplicateCommand      = &Error{Code: CodeDuplicateCommand, Message: "duplicate command"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorf creates a new Error with the given code and formatted message.
func NewErrorf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithCause sets the underlying cause of the error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

package rerrcode

import (
	"fmt"
	"strings"
)

// Descriptor returns the descriptor for the error code.
func (ec ErrorCode) Descriptor() ErrorDescriptor {
	d, ok := errorCodeToDescriptors[ec]
	if !ok {
		return ErrorCodeUnknown.Descriptor()
	}
	return d
}

// String returns the canonical, all-uppercase identifier for this
// error code (e.g. "REPOSITORY_NOT_FOUND").
func (ec ErrorCode) String() string {
	return ec.Descriptor().Value
}

// Message returns the error's default, unsubstituted message.
func (ec ErrorCode) Message() string {
	return ec.Descriptor().Message
}

// ExitCode returns the process exit status registered for this error
// code.
func (ec ErrorCode) ExitCode() int {
	return ec.Descriptor().ExitCode
}

// Error implements the error interface.
func (ec ErrorCode) Error() string {
	return strings.ToLower(strings.ReplaceAll(ec.String(), "_", " "))
}

// WithDetail creates a new Error struct based on the passed-in
// info, with Detail set to the provided detail value.
func (ec ErrorCode) WithDetail(detail interface{}) Error {
	return Error{Code: ec, Message: ec.Message(), Detail: detail}
}

// WithArgs creates a new Error struct, using the passed-in args to
// substitute the "%s" placeholders in the error code's message.
func (ec ErrorCode) WithArgs(args ...interface{}) Error {
	return Error{Code: ec, Message: fmt.Sprintf(ec.Message(), args...)}
}

// Error provides a wrapper around ErrorCode with extra information
// attached, such as the specific detail or arguments to the error.
type Error struct {
	Code    ErrorCode
	Message string
	Detail  interface{}
}

// ErrorCode returns the ID/Value of this Error.
func (e Error) ErrorCode() ErrorCode {
	return e.Code
}

// Error returns a human readable representation of the error.
func (e Error) Error() string {
	return e.Message
}

// WithDetail returns a new Error with Detail set, preserving Code and
// Message.
func (e Error) WithDetail(detail interface{}) Error {
	return Error{Code: e.Code, Message: e.Message, Detail: detail}
}

// Errors provides the envelope for multiple errors.
type Errors []error

var _ error = Errors{}

// Error renders multiple errors, joined by semicolons.
func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return "<nil>"
	case 1:
		return errs[0].Error()
	default:
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return strings.Join(msgs, "; ")
	}
}

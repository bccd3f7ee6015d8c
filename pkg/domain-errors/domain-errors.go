// Package domainerrors defines the transport-agnostic error type shared by the
// versioning and rate limiting modules. HTTP mapping lives in httputil.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable error category.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_failed"
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeUnavailable  Code = "unavailable"
	CodeTimeout      Code = "timeout"

	// CodeInvariantViolation is a caller-supplied value breaking a domain rule.
	CodeInvariantViolation Code = "invariant_violation"

	// Server-side faults. Messages for these never reach clients.
	CodeInternal      Code = "internal_error"
	CodeMisconfigured Code = "misconfigured"
)

// Error carries a Code, a client-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match on Code alone, so errors.Is(err, &Error{Code: c}) finds
// any error of that category in the chain.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches msg to err. If err already carries a code, that code is kept
// and code is ignored; the innermost classification wins.
func Wrap(err error, code Code, msg string) error {
	if c := CodeOf(err); c != "" {
		code = c
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost code in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsServerFault reports whether err should be logged as a server error and
// hidden from the client. Foreign errors count as faults.
func IsServerFault(err error) bool {
	switch CodeOf(err) {
	case CodeInternal, CodeMisconfigured, "":
		return err != nil
	}
	return false
}

package store

import (
	"fmt"
	"net/http"
)

// Error is a storage error carrying an HTTP status and a machine-readable kind.
type Error struct {
	Code    int    // HTTP status code
	kind    string // e.g. NOT_FOUND
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// Kind returns the machine-readable error kind.
func (e *Error) Kind() string { return e.kind }

// Is matches any *Error of the same kind, so copies made by WithMessage still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// WithMessage returns a copy with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, kind: e.kind, Message: msg, Err: e.Err}
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, kind: e.kind, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		kind:    "NOT_FOUND",
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		kind:    "ALREADY_EXISTS",
		Message: "resource already exists",
	}

	ErrInvalidPath = &Error{
		Code:    http.StatusBadRequest,
		kind:    "INVALID_PATH",
		Message: "invalid tree path",
	}
)

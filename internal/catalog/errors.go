package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog fetches.
var (
	ErrTransport   = errors.New("catalog: transport failure")
	ErrStatus      = errors.New("catalog: unexpected status")
	ErrRateLimited = errors.New("catalog: rate limited by upstream")
	ErrBreakerOpen = errors.New("catalog: upstream circuit open")
	ErrParse       = errors.New("catalog: malformed payload")
)

// ParseError names the record and field that made a payload unusable.
// Index is -1 when the body itself is not a JSON array.
type ParseError struct {
	Index int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("catalog: malformed payload: %v", e.Err)
	}
	return fmt.Sprintf("catalog: record %d field %q: %v", e.Index, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets callers match any ParseError with ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// StatusError carries the upstream HTTP status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: upstream returned status %d", e.StatusCode)
}

// Is matches ErrStatus, and ErrRateLimited for 429.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus || (target == ErrRateLimited && e.StatusCode == 429)
}

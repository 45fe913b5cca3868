package classify

import (
	"errors"
	"fmt"
)

// Error is a classified failure. It is created per failed attempt and never persisted.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool

	// HTTPStatus is the received status, or 0 when no response arrived.
	HTTPStatus int

	// Err is the raw outcome that was classified.
	Err error
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ResponseError is the raw outcome for a received non-2xx response.
type ResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("unexpected response status %d", e.StatusCode)
}

// MalformedResponseError is the raw outcome for a 2xx response whose body could not be decoded.
type MalformedResponseError struct {
	StatusCode int
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response body (status %d): %v", e.StatusCode, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// Cancelled wraps a caller-side cancellation (context.Canceled or the caller's own deadline).
func Cancelled(cause error) *Error {
	return newError(KindCancelled, 0, "", cause)
}

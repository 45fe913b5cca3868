package classify

import "net/http"

// Kind is a stable outcome category. Its string form is part of the HTTP error body.
type Kind string

const (
	KindUnreachable  Kind = "unreachable"
	KindTransient    Kind = "transient"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindClientError  Kind = "client_error"
	KindUnknown      Kind = "unknown"
	KindCancelled    Kind = "cancelled"
)

var defaultMessages = map[Kind]string{
	KindUnreachable:  "Unable to reach the server. Check your connection and try again.",
	KindTransient:    "The service is temporarily unavailable. Please try again shortly.",
	KindUnauthorized: "Your session is invalid or has expired. Please sign in again.",
	KindForbidden:    "You do not have permission to do that.",
	KindNotFound:     "The requested item was not found.",
	KindClientError:  "The request was invalid.",
	KindUnknown:      "Something went wrong. Please try again later.",
	KindCancelled:    "The request was cancelled.",
}

// Per-status defaults override the kind default.
var statusMessages = map[int]string{
	http.StatusTooManyRequests:     "Too many requests. Please wait a moment and try again.",
	http.StatusConflict:            "The request conflicts with existing data.",
	http.StatusUnprocessableEntity: "Some of the submitted values are not valid.",
}

// DefaultMessage returns the fixed message for kind.
func DefaultMessage(k Kind) string {
	if m, ok := defaultMessages[k]; ok {
		return m
	}
	return defaultMessages[KindUnknown]
}

// Retryable reports whether the kind is worth another attempt.
func (k Kind) Retryable() bool {
	return k == KindUnreachable || k == KindTransient
}

// StatusClientClosedRequest is the non-standard status written when the caller went away
// before a response was ready. Nothing reads it; it keeps the exchange out of the 5xx range.
const StatusClientClosedRequest = 499

// StatusFor is the server-side inverse of the classification table: the status a handler
// should send so that a client classifies the response back to k.
// Unknown maps to 501, which is outside the table and so reads back as unknown
// (not retryable). Unreachable never originates from a server; it maps to 503.
func StatusFor(k Kind) int {
	switch k {
	case KindTransient, KindUnreachable:
		return http.StatusServiceUnavailable
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindClientError:
		return http.StatusBadRequest
	case KindCancelled:
		return StatusClientClosedRequest
	default:
		return http.StatusNotImplemented
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindTransient
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return KindClientError
	default:
		return KindUnknown
	}
}

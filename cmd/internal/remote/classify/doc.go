// Package classify maps failed remote calls onto a small, stable set of outcome kinds.
//
// A raw outcome is one of: a transport error (no response), a *ResponseError carrying a
// non-2xx status and body, or a *MalformedResponseError for a 2xx body that could not be read.
// Classify turns it into an *Error with a Kind, a user-facing Message and a Retryable flag.
// The table is fixed and first match wins.
package classify

// Package retry runs an attempt with bounded retries and exponential backoff.
//
// Every failure is classified before anything else happens: a non-retryable classification
// surfaces on first occurrence, and only retryable ones consume further attempts. Waits are
// clock timers selected against the caller's context, so cancelling a call stops its pending
// timer and no attempt starts afterwards.
package retry

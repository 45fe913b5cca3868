// Package session issues and validates the planner's signed session tokens.
//
// Tokens are PASETO v4.public (Ed25519). The Service owns its signing key for its whole
// lifetime; it is constructed explicitly and injected into consumers, never held in a
// package-level variable.
//
// A token moves through Issued -> Valid -> Expired. There is no revocation list; expiry is
// purely time-based and judged against a single injected clock with no grace window.
package session

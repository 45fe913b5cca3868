package password

import "errors"

// Public, stable errors for callers.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")

	// ErrHashingFailure is returned when the underlying primitive fails (salt source).
	// It is unexpected under normal operation and callers treat it as fatal.
	ErrHashingFailure = errors.New("password hashing failure")

	// ErrInvalidStoredSecretFormat is returned by Verify when the stored secret cannot be
	// decoded or carries unsupported/out-of-bounds parameters.
	ErrInvalidStoredSecretFormat = errors.New("invalid stored secret format")
)

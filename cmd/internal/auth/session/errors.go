package session

import "errors"

var (
	// ErrInvalidSignature is returned when a token is well-formed but was not signed by this
	// service's key (or was altered after signing).
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrMalformed is returned when a token is not a v4.public PASETO or its authenticated
	// payload cannot be decoded into claims.
	ErrMalformed = errors.New("malformed token")

	// ErrExpired is returned when the signature is valid but now is past ExpiresAt.
	ErrExpired = errors.New("token expired")

	// ErrInvalidClaims is returned by Issue for an empty subject or non-scalar extra values.
	ErrInvalidClaims = errors.New("invalid session claims")

	// ErrInvalidPolicy is returned by Issue for a TTL below one second.
	ErrInvalidPolicy = errors.New("invalid session policy")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

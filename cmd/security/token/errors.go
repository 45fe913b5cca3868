package token

import "errors"

// Public, stable errors for callers.
var (
	ErrFingerprintKeyTooShort = errors.New("token fingerprint key too short")
)

package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// FingerprintKeyEnv is the env var name for the optional fingerprint HMAC key.
	// #nosec G101 -- not a credential; it's an environment variable name.
	FingerprintKeyEnv = "PLANNER_TOKEN_FINGERPRINT_KEY"

	// MinKeyBytes is the smallest accepted fingerprint key.
	MinKeyBytes = 32

	fingerprintHexLen = 16
)

// Fingerprinter produces truncated token digests for logs.
// The zero value uses plain SHA-256.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter returns a keyed Fingerprinter. An empty key selects plain SHA-256.
func NewFingerprinter(key []byte) (Fingerprinter, error) {
	if len(key) == 0 {
		return Fingerprinter{}, nil
	}
	if len(key) < MinKeyBytes {
		return Fingerprinter{}, ErrFingerprintKeyTooShort
	}
	return Fingerprinter{key: append([]byte(nil), key...)}, nil
}

// FingerprinterFromEnv reads FingerprintKeyEnv (trimmed).
func FingerprinterFromEnv() (Fingerprinter, error) {
	return NewFingerprinter([]byte(strings.TrimSpace(os.Getenv(FingerprintKeyEnv))))
}

// Keyed reports whether HMAC mode is active.
func (f Fingerprinter) Keyed() bool { return len(f.key) > 0 }

// Fingerprint returns a 16-char hex prefix of the token digest.
// Empty tokens map to "".
func (f Fingerprinter) Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	var sum []byte
	if f.Keyed() {
		sum = HashHMACSHA256(tok, f.key)
	} else {
		s := sha256.Sum256([]byte(tok))
		sum = s[:]
	}
	return hex.EncodeToString(sum)[:fingerprintHexLen]
}

// HashHMACSHA256 returns HMAC-SHA256(s, key).
func HashHMACSHA256(s string, key []byte) []byte {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return m.Sum(nil)
}

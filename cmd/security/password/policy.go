package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks the enrollment policy for a new secret. It does not mutate input
// and is never applied to login attempts.
func (c Config) Validate(secret string) error {
	// Count characters (runes), not bytes.
	n := utf8.RuneCountInString(secret)

	switch {
	case n < c.Policy.MinLength:
		return ErrPasswordTooShort
	case n > c.Policy.MaxLength:
		return ErrPasswordTooLong
	case c.Policy.RejectVeryWeak && looksVeryWeak(secret):
		return ErrWeakPassword
	}
	return nil
}

var trivialSecrets = map[string]struct{}{
	"password":    {},
	"password123": {},
	"123456":      {},
	"123456789":   {},
	"qwerty":      {},
	"qwerty123":   {},
	"11111111":    {},
	"letmein":     {},
	"welcome1":    {},
	"sunday123":   {},
}

// looksVeryWeak is minimal and conservative; it is not a zxcvbn-style estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	first, _ := utf8.DecodeRuneInString(s)
	if strings.Trim(s, string(first)) == "" {
		return true
	}

	// PIN-like: digits only and short-ish.
	if strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 &&
		utf8.RuneCountInString(s) < 12 {
		return true
	}

	_, trivial := trivialSecrets[strings.ToLower(s)]
	return trivial
}

package identity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeIdentity canonicalizes a login identity: trim, Unicode NFKC, lower-case.
// Lookups and uniqueness are both keyed by the normalized form.
func NormalizeIdentity(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

func trimmed(s string) string { return strings.TrimSpace(s) }

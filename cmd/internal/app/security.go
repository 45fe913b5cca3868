package app

import (
	"github.com/samber/oops"

	"github.com/moonseer/church-planner-sub001/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy.
// With RequireFingerprintKey set, log fingerprints must be HMAC-keyed so they cannot be
// matched against a list of guessed identities.
func ValidateSecurityConfig(cfg Config, fp token.Fingerprinter) error {
	if !cfg.RequireFingerprintKey {
		return nil
	}
	if !fp.Keyed() {
		return oops.Code("SECURITY_POLICY").
			Errorf("require_fingerprint_key=true but %s is not set", token.FingerprintKeyEnv)
	}
	return nil
}

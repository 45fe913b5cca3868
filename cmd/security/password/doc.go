// Package password provides password hashing and verification for the planner.
//
// It implements Argon2id hashing using a PHC encoded string (StoredSecret) and includes:
// - Configurable Argon2id parameters (via environment variables)
// - Password policy validation for enrollment
// - Strict stored-secret decoding and verification with anti-DoS bounds
// - A bounded worker pool so CPU-heavy hashing cannot starve request handling
//
// Security notes:
//   - Stored secrets are treated as untrusted input during Verify and are validated accordingly.
//   - A mismatch is a normal (false, nil) result; only malformed input is an error.
//   - Verification refuses hashes with parameters that exceed reasonable bounds.
package password

// Package token derives log-safe fingerprints of opaque bearer tokens.
//
// Raw session tokens never reach a log line. Handlers log a short fingerprint instead so
// operators can correlate failures for the same token without being able to replay it.
//
// Modes:
//   - Default: SHA-256(token), hex, truncated.
//   - Keyed: HMAC-SHA256(token, key) when PLANNER_TOKEN_FINGERPRINT_KEY is set, so
//     fingerprints cannot be confirmed by someone holding a guessed token but not the key.
package token

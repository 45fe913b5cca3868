package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = argon2.Version // 0x13 (19)
	phcAlgorithm  = "argon2id"
)

// StoredSecret is the persisted form of a hashed password.
// Format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// It embeds the salt and the cost parameters it was produced with, so it stays verifiable
// after the configured cost changes. Callers outside this package treat it as opaque.
type StoredSecret string

// String returns the encoded form.
func (s StoredSecret) String() string { return string(s) }

// saltSource is swapped in tests to exercise ErrHashingFailure.
var saltSource io.Reader = rand.Reader

// Hash derives a salted Argon2id hash of secret with a fresh random salt.
// Two calls with the same secret yield different StoredSecrets.
// It does not apply the password policy; enrollment paths call Validate first.
func (c Config) Hash(secret string) (StoredSecret, error) {
	salt := make([]byte, c.Params.SaltLength)
	if _, err := io.ReadFull(saltSource, salt); err != nil {
		return "", fmt.Errorf("%w: salt: %v", ErrHashingFailure, err)
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		c.Params.KeyLength,
	)

	return encode(c.Params, salt, key), nil
}

// Verify checks whether secret matches stored.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidStoredSecretFormat) for malformed/unsupported stored secrets.
func (c Config) Verify(secret string, stored StoredSecret) (bool, error) {
	params, salt, expected, err := decode(stored)
	if err != nil {
		return false, err
	}

	// Anti-DoS boundary: refuse to verify if params exceed our configured maximums
	// by a large margin (attacker-controlled or corrupted rows must not pin the CPU).
	if !withinReasonableBounds(params, c.Params) {
		return false, ErrInvalidStoredSecretFormat
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- expected length is bounded by withinReasonableBounds.
	)

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// NeedsRehash reports whether stored was produced with parameters that differ from c.Params.
func (c Config) NeedsRehash(stored StoredSecret) bool {
	params, _, _, err := decode(stored)
	if err != nil {
		return true
	}
	return params.MemoryKiB != c.Params.MemoryKiB ||
		params.Iterations != c.Params.Iterations ||
		params.Parallelism != c.Params.Parallelism ||
		params.KeyLength != c.Params.KeyLength
}

func encode(p Argon2idParams, salt, key []byte) StoredSecret {
	b64 := base64.RawStdEncoding
	return StoredSecret(fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithm,
		argon2Version,
		p.MemoryKiB,
		p.Iterations,
		p.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	))
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Allow verifying hashes generated with older/smaller settings,
	// but reject wildly larger settings.
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if uint32(got.Parallelism) > uint32(limits.Parallelism)*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// decode parses the stored secret and returns params, salt and expected key.
func decode(stored StoredSecret) (Argon2idParams, []byte, []byte, error) {
	// Expected:
	// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
	parts := strings.Split(string(stored), "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != phcAlgorithm {
		return Argon2idParams{}, nil, nil, ErrInvalidStoredSecretFormat
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Argon2idParams{}, nil, nil, ErrInvalidStoredSecretFormat
	}

	if !strings.HasPrefix(parts[3], "m=") {
		return Argon2idParams{}, nil, nil, ErrInvalidStoredSecretFormat
	}
	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidStoredSecretFormat
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidStoredSecretFormat
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidStoredSecretFormat
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidStoredSecretFormat
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by withinReasonableBounds before use.
		KeyLength:   uint32(len(hash)), // #nosec G115 -- bounded by withinReasonableBounds before use.
	}

	return params, salt, hash, nil
}

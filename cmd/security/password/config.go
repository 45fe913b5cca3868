package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls password validation at enrollment time.
type Policy struct {
	MinLength int
	MaxLength int
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy

	// Workers bounds how many hash/verify computations may run at once (see Pool).
	Workers int
}

// DefaultConfig returns the baseline cost for interactive logins.
func DefaultConfig() Config {
	// Clamp parallelism to [1..4] to keep resource usage predictable in containers.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      12,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
		Workers: threads,
	}
}

// FromEnv loads config from environment variables on top of DefaultConfig.
//
// Env surface:
// - PLANNER_PASSWORD_MIN_LEN
// - PLANNER_PASSWORD_MAX_LEN
// - PLANNER_PASSWORD_REJECT_VERY_WEAK (true/false)
// - PLANNER_ARGON2_MEMORY_KIB
// - PLANNER_ARGON2_ITERATIONS
// - PLANNER_ARGON2_PARALLELISM
// - PLANNER_ARGON2_SALT_LEN
// - PLANNER_ARGON2_KEY_LEN
// - PLANNER_HASH_WORKERS
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	ints := []struct {
		key      string
		min, max int
		dst      *int
	}{
		{"PLANNER_PASSWORD_MIN_LEN", 1, 1024, &cfg.Policy.MinLength},
		{"PLANNER_PASSWORD_MAX_LEN", 1, 4096, &cfg.Policy.MaxLength},
		{"PLANNER_HASH_WORKERS", 1, 256, &cfg.Workers},
	}
	for _, s := range ints {
		v, ok := os.LookupEnv(s.key)
		if !ok {
			continue
		}
		n, err := atoiInRange(v, s.min, s.max)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", s.key, err)
		}
		*s.dst = n
	}

	if v, ok := os.LookupEnv("PLANNER_PASSWORD_REJECT_VERY_WEAK"); ok {
		b, err := parseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("PLANNER_PASSWORD_REJECT_VERY_WEAK: %w", err)
		}
		cfg.Policy.RejectVeryWeak = b
	}

	u32s := []struct {
		key      string
		min, max uint32
		dst      *uint32
	}{
		{"PLANNER_ARGON2_MEMORY_KIB", 8 * 1024, 1024 * 1024, &cfg.Params.MemoryKiB}, // 8 MiB .. 1 GiB
		{"PLANNER_ARGON2_ITERATIONS", 1, 20, &cfg.Params.Iterations},
		{"PLANNER_ARGON2_SALT_LEN", 8, 64, &cfg.Params.SaltLength},
		{"PLANNER_ARGON2_KEY_LEN", 16, 64, &cfg.Params.KeyLength},
	}
	for _, s := range u32s {
		v, ok := os.LookupEnv(s.key)
		if !ok {
			continue
		}
		u, err := atou32(v, s.min, s.max)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", s.key, err)
		}
		*s.dst = u
	}

	if v, ok := os.LookupEnv("PLANNER_ARGON2_PARALLELISM"); ok {
		u, err := atou32(v, 1, 64)
		if err != nil {
			return Config{}, fmt.Errorf("PLANNER_ARGON2_PARALLELISM: %w", err)
		}
		p, err := u32ToU8(u)
		if err != nil {
			return Config{}, fmt.Errorf("PLANNER_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Params.Parallelism = p
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

func atoiInRange(s string, minVal, maxVal int) (int, error) {
	i64, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	u64, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}
	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}

package authapi

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// Per-client-IP token bucket on POST /authenticate.
	LoginRatePerMinute int
	LoginBurst         int

	// Idle limiters older than this are evicted.
	LimiterIdleTTL time.Duration
}

// DefaultConfig returns the defaults LoadConfigFromEnv starts from.
func DefaultConfig() Config {
	return Config{
		TrustProxy:         false,
		MaxBodyBytes:       16 << 10, // 16 KiB
		LoginRatePerMinute: 10,
		LoginBurst:         5,
		LimiterIdleTTL:     15 * time.Minute,
	}
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
// Invalid values fall back to the default.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		TrustProxy:         envBool("PLANNER_AUTH_TRUST_PROXY", def.TrustProxy),
		MaxBodyBytes:       envInt64("PLANNER_AUTH_MAX_BODY_BYTES", def.MaxBodyBytes),
		LoginRatePerMinute: envInt("PLANNER_AUTH_LOGIN_RATE_PER_MINUTE", def.LoginRatePerMinute),
		LoginBurst:         envInt("PLANNER_AUTH_LOGIN_BURST", def.LoginBurst),
		LimiterIdleTTL:     envDuration("PLANNER_AUTH_LIMITER_IDLE_TTL", def.LimiterIdleTTL),
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

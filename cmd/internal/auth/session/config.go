package session

import (
	"os"
	"strings"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// Issuer is the value set in the "iss" claim and required on validation.
	Issuer string

	// TTL is the lifetime of tokens issued at login.
	TTL time.Duration

	// SecretKeyHex is the hex-encoded Ed25519 secret key used to sign v4.public tokens.
	// It is loaded once at startup and never logged.
	SecretKeyHex string
}

// DefaultConfig returns defaults suitable for development (no key).
func DefaultConfig() Config {
	return Config{
		Issuer: "planner",
		TTL:    DefaultPolicy().TTL,
	}
}

// Policy returns the issuance policy implied by the configured TTL.
func (c Config) Policy() Policy {
	return Policy{TTL: c.TTL}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - PLANNER_SESSION_SECRET_KEY_HEX
//
// Optional:
//   - PLANNER_SESSION_ISSUER
//   - PLANNER_SESSION_TTL (Go duration, at least 1s)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("PLANNER_SESSION_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("PLANNER_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < time.Second {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	cfg.SecretKeyHex = strings.TrimSpace(os.Getenv("PLANNER_SESSION_SECRET_KEY_HEX"))
	if cfg.SecretKeyHex == "" {
		return Config{}, ErrConfig
	}
	if _, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.SecretKeyHex); err != nil {
		return Config{}, ErrConfig
	}

	return cfg, nil
}

// GenerateSecretKeyHex returns a fresh Ed25519 secret key in the hex form LoadConfigFromEnv expects.
func GenerateSecretKeyHex() string {
	return paseto.NewV4AsymmetricSecretKey().ExportHex()
}

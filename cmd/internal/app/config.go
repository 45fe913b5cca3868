package app

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

// EnvPrefix prefixes every runtime setting in the environment.
const EnvPrefix = "PLANNER_"

// ConfigPathEnv names the optional YAML config file when --config is not given.
const ConfigPathEnv = "PLANNER_CONFIG"

// Config contains the server runtime configuration.
//
// Keys are flat: http_addr in YAML is PLANNER_HTTP_ADDR in the environment.
// Package-level settings (password cost, session key, auth limits) are read by their own
// packages' env loaders.
type Config struct {
	HTTPAddr string `koanf:"http_addr"`
	LogLevel string `koanf:"log_level"`

	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	MaxHeaderBytes    int           `koanf:"max_header_bytes"`

	// Empty DatabaseURL selects the in-memory identity store.
	DatabaseURL string `koanf:"database_url"`
	DBMaxConns  int32  `koanf:"db_max_conns"`
	DBMinConns  int32  `koanf:"db_min_conns"`
	AutoMigrate bool   `koanf:"auto_migrate"`

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool `koanf:"readiness_require_db"`

	MetricsEnabled bool `koanf:"metrics_enabled"`

	// If true, PLANNER_TOKEN_FINGERPRINT_KEY must be set so log fingerprints are keyed.
	RequireFingerprintKey bool `koanf:"require_fingerprint_key"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr: "0.0.0.0:8080",
		LogLevel: "info",

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxHeaderBytes:    1 << 20,

		DBMaxConns: 10,
		DBMinConns: 0,

		MetricsEnabled: true,
	}
}

// LoadConfig layers defaults, an optional YAML file and PLANNER_* environment variables.
// path overrides PLANNER_CONFIG; both may be empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	k := koanf.New(".")

	if path == "" {
		path = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	// PLANNER_HTTP_ADDR -> http_addr. Empty values are skipped so they never mask defaults.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), strings.TrimSpace(value)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	errb := oops.Code("CONFIG_INVALID")
	switch {
	case strings.TrimSpace(c.HTTPAddr) == "":
		return errb.Errorf("http_addr is required")
	case c.ReadHeaderTimeout <= 0, c.ReadTimeout <= 0, c.WriteTimeout <= 0, c.IdleTimeout <= 0:
		return errb.Errorf("http timeouts must be > 0")
	case c.ShutdownTimeout <= 0:
		return errb.Errorf("shutdown_timeout must be > 0")
	case c.MaxHeaderBytes <= 0:
		return errb.Errorf("max_header_bytes must be > 0")
	case c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns:
		return errb.With("db_min_conns", c.DBMinConns, "db_max_conns", c.DBMaxConns).
			Errorf("db connection limits invalid")
	case c.AutoMigrate && c.DatabaseURL == "":
		return errb.Errorf("auto_migrate requires database_url")
	}
	return nil
}

package client

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/retry"
)

// Config holds client settings.
type Config struct {
	BaseURL string

	// Timeout bounds one HTTP attempt, not the whole retried call.
	Timeout time.Duration

	Retry retry.Policy
}

// DefaultConfig targets a local server with retry.DefaultPolicy.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8080",
		Timeout: 10 * time.Second,
		Retry:   retry.DefaultPolicy(),
	}
}

// ConfigFromEnv overlays environment variables on DefaultConfig.
//
// Env surface:
// - PLANNER_CLIENT_BASE_URL
// - PLANNER_CLIENT_TIMEOUT (Go duration)
// - PLANNER_CLIENT_MAX_ATTEMPTS
// - PLANNER_CLIENT_INITIAL_DELAY (Go duration)
// - PLANNER_CLIENT_BACKOFF_FACTOR
// - PLANNER_CLIENT_MAX_DELAY (Go duration, 0 = uncapped)
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("PLANNER_CLIENT_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"PLANNER_CLIENT_TIMEOUT", &cfg.Timeout},
		{"PLANNER_CLIENT_INITIAL_DELAY", &cfg.Retry.InitialDelay},
		{"PLANNER_CLIENT_MAX_DELAY", &cfg.Retry.MaxDelay},
	}
	for _, d := range durations {
		v := strings.TrimSpace(os.Getenv(d.key))
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed < 0 {
			return Config{}, fmt.Errorf("%s: invalid duration %q", d.key, v)
		}
		*d.dst = parsed
	}

	if v := strings.TrimSpace(os.Getenv("PLANNER_CLIENT_MAX_ATTEMPTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("PLANNER_CLIENT_MAX_ATTEMPTS: not an integer")
		}
		cfg.Retry.MaxAttempts = n
	}
	if v := strings.TrimSpace(os.Getenv("PLANNER_CLIENT_BACKOFF_FACTOR")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("PLANNER_CLIENT_BACKOFF_FACTOR: not a number")
		}
		cfg.Retry.BackoffFactor = f
	}

	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("PLANNER_CLIENT_TIMEOUT: must be > 0")
	}
	if err := cfg.Retry.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

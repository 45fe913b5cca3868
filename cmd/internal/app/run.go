package app

import (
	"context"
	"os/signal"
	"syscall"
)

// Run is the `planner serve` entrypoint. It loads config from configPath (or PLANNER_CONFIG)
// and the environment, and serves until SIGINT or SIGTERM.
// It returns an error instead of calling os.Exit to keep defers effective.
func Run(ctx context.Context, configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	log := NewLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

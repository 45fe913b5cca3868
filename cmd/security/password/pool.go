package password

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool runs hash and verify computations through a bounded number of slots so that a burst
// of logins cannot monopolise every CPU the HTTP server needs.
type Pool struct {
	cfg Config
	sem *semaphore.Weighted
}

// NewPool returns a Pool admitting cfg.Workers concurrent computations (at least one).
func NewPool(cfg Config) *Pool {
	n := cfg.Workers
	if n <= 0 {
		n = 1
	}
	return &Pool{cfg: cfg, sem: semaphore.NewWeighted(int64(n))}
}

// Config returns the hashing configuration the pool was built with.
func (p *Pool) Config() Config { return p.cfg }

// Hash is Config.Hash gated by a pool slot.
func (p *Pool) Hash(ctx context.Context, secret string) (StoredSecret, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)
	return p.cfg.Hash(secret)
}

// Verify is Config.Verify gated by a pool slot.
// A context error is returned only when no slot could be acquired.
func (p *Pool) Verify(ctx context.Context, secret string, stored StoredSecret) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.sem.Release(1)
	return p.cfg.Verify(secret, stored)
}

// NeedsRehash reports whether stored should be re-hashed with the pool's current cost.
func (p *Pool) NeedsRehash(stored StoredSecret) bool { return p.cfg.NeedsRehash(stored) }

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/moonseer/church-planner-sub001/cmd/identity"
)

// NewDBPool builds a pgxpool and validates connectivity.
// It does not run migrations; see Config.AutoMigrate and `planner migrate`.
func NewDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		// The URL may embed a password; never attach it.
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns >= 0 {
		pcfg.MinConns = cfg.DBMinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}

	if err := PingDB(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("step", "ping").Wrap(err)
	}

	return pool, nil
}

// PingDB checks if we can acquire a connection within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

// Stores owns the identity store and, in Postgres mode, the pool behind it.
type Stores struct {
	Identity identity.Store
	pool     *pgxpool.Pool
}

// OpenStores selects Postgres when cfg.DatabaseURL is set and the in-memory store otherwise.
// With cfg.AutoMigrate the embedded schema is applied before the store is built.
func OpenStores(ctx context.Context, cfg Config, log *slog.Logger) (*Stores, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("identity.store.memory", "note", "credentials are lost on restart")
		return &Stores{Identity: identity.NewMemoryStore()}, nil
	}

	if cfg.AutoMigrate {
		if err := Migrate(cfg.DatabaseURL, log); err != nil {
			return nil, err
		}
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("identity.store.postgres")
	return &Stores{Identity: store, pool: pool}, nil
}

// DBEnabled reports whether the stores are Postgres-backed.
func (s *Stores) DBEnabled() bool { return s != nil && s.pool != nil }

// Ping checks DB reachability. It is a no-op for the in-memory store.
func (s *Stores) Ping(ctx context.Context, timeout time.Duration) error {
	if !s.DBEnabled() {
		return nil
	}
	return PingDB(ctx, s.pool, timeout)
}

// Close releases the pool, if any.
func (s *Stores) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies the embedded identity schema.
func Migrate(databaseURL string, log *slog.Logger) error {
	m, err := identity.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn("db.migrate.close.fail", "err", cerr)
		}
	}()

	if err := m.Up(); err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info("db.migrate.done", "version", version, "dirty", dirty)
	return nil
}

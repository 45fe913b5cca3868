// Package app wires the planner server runtime: config, logging, identity storage, the auth
// HTTP surface and operational endpoints.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"

	authapi "github.com/moonseer/church-planner-sub001/cmd/internal/auth/api"
	"github.com/moonseer/church-planner-sub001/cmd/internal/auth/coordinator"
	"github.com/moonseer/church-planner-sub001/cmd/internal/auth/session"
	"github.com/moonseer/church-planner-sub001/cmd/security/password"
	"github.com/moonseer/church-planner-sub001/cmd/security/token"
)

// App is the planner server runtime. It owns the HTTP server wiring and the stores.
type App struct {
	cfg Config
	log Logger

	stores   *Stores
	registry *prometheus.Registry
	handler  http.Handler
}

// Option configures New.
type Option func(*options)

type options struct {
	stores *Stores
}

// WithStores makes New use stores instead of opening them from cfg. The App still closes them.
func WithStores(s *Stores) Option {
	return func(o *options) { o.stores = s }
}

// New constructs a fully wired App from cfg. Package settings (password cost, session key,
// auth limits, fingerprint key) come from their PLANNER_* env loaders.
func New(ctx context.Context, cfg Config, log Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	fp, err := token.FingerprinterFromEnv()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("env", token.FingerprintKeyEnv).Wrap(err)
	}
	if err := ValidateSecurityConfig(cfg, fp); err != nil {
		return nil, err
	}

	hashCfg, err := password.FromEnv()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("component", "password").Wrap(err)
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("component", "session").Wrap(err)
	}
	tokens, err := session.NewService(sessCfg)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("component", "session").Wrap(err)
	}

	stores := o.stores
	if stores == nil {
		stores, err = OpenStores(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
	}

	coord, err := coordinator.New(ctx, stores.Identity, password.NewPool(hashCfg), tokens,
		coordinator.WithPolicy(sessCfg.Policy()),
		coordinator.WithLogger(log),
		coordinator.WithFingerprinter(fp),
	)
	if err != nil {
		stores.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	auth, err := authapi.NewHandler(log, coord, authapi.LoadConfigFromEnv(),
		authapi.WithMetrics(authapi.NewMetrics(registry)),
		authapi.WithFingerprinter(fp),
	)
	if err != nil {
		stores.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, log, cfg, stores, registry, auth)

	log.Info("app.ready",
		"db_enabled", stores.DBEnabled(),
		"session_issuer", sessCfg.Issuer,
		"session_ttl", sessCfg.TTL,
		"session_public_key", tokens.PublicKeyHex(),
		"fingerprint_keyed", fp.Keyed(),
		"hash_workers", hashCfg.Workers,
	)

	return &App{
		cfg:      cfg,
		log:      log,
		stores:   stores,
		registry: registry,
		handler:  WithRequestID(WithRequestLogging(mux, log)),
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves on cfg.HTTPAddr until ctx is done or the server fails, then shuts down
// gracefully and closes the stores.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		a.stores.Close()
		return oops.Code("SERVER_LISTEN_FAILED").With("addr", a.cfg.HTTPAddr).Wrap(err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	defer a.stores.Close()

	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start", "addr", ln.Addr().String(), "db_enabled", a.stores.DBEnabled())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return oops.Code("SERVER_FAILED").Wrap(err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
	}

	a.log.Info("server.stopped")
	return nil
}

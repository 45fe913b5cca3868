// Package authapi exposes the auth coordinator over HTTP: POST /authenticate issues a
// session token and GET /session reports the claims of a bearer token.
package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/juju/clock"

	"github.com/moonseer/church-planner-sub001/cmd/identity"
	"github.com/moonseer/church-planner-sub001/cmd/internal/auth/coordinator"
	"github.com/moonseer/church-planner-sub001/cmd/internal/auth/session"
	"github.com/moonseer/church-planner-sub001/cmd/internal/errutil"
	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/classify"
	"github.com/moonseer/church-planner-sub001/cmd/security/token"
)

// Authenticator is the coordinator surface the handler needs.
type Authenticator interface {
	Authenticate(ctx context.Context, cred coordinator.Credential) (session.Issued, error)
	AuthorizeRequest(ctx context.Context, tok string) (session.Claims, error)
}

// Handler wires HTTP auth endpoints to the coordinator.
type Handler struct {
	log     *slog.Logger
	cfg     Config
	auth    Authenticator
	limiter *ipLimiter
	metrics *Metrics
	clock   clock.Clock
	fp      token.Fingerprinter
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithMetrics records request outcomes on m.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil || m == nil {
			return
		}
		h.metrics = m
	}
}

// WithClock overrides the wall clock used for rate limiting.
func WithClock(c clock.Clock) HandlerOption {
	return func(h *Handler) {
		if h == nil || c == nil {
			return
		}
		h.clock = c
	}
}

// WithFingerprinter sets how identities are fingerprinted in audit events.
func WithFingerprinter(f token.Fingerprinter) HandlerOption {
	return func(h *Handler) {
		if h == nil {
			return
		}
		h.fp = f
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, auth Authenticator, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if auth == nil {
		return nil, errors.New("auth: nil authenticator")
	}
	if log == nil {
		log = slog.Default()
	}

	def := DefaultConfig()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.LoginRatePerMinute <= 0 {
		cfg.LoginRatePerMinute = def.LoginRatePerMinute
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = def.LoginBurst
	}
	if cfg.LimiterIdleTTL <= 0 {
		cfg.LimiterIdleTTL = def.LimiterIdleTTL
	}

	h := &Handler{
		log:   log,
		cfg:   cfg,
		auth:  auth,
		clock: clock.WallClock,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	h.limiter = newIPLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst, cfg.LimiterIdleTTL)
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/authenticate", h.handleAuthenticate)
	mux.HandleFunc("/session", h.handleSession)
}

// ---- handlers ----

func (h *Handler) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := h.clock.Now()
	defer func() { h.metrics.observe("authenticate", h.clock.Now().Sub(start).Seconds()) }()

	ctx := r.Context()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	// Throttle before parsing so floods never reach Argon2id.
	if ok, retryAfter := h.limiter.allow(ipKey(ip), start); !ok {
		h.metrics.attempt(outcomeRateLimited)
		h.auditLoginRateLimited(ctx, ip, ua, retryAfter)
		writeRateLimited(w, retryAfter)
		return
	}

	var req authenticateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.metrics.attempt(outcomeBadRequest)
		writeError(w, classify.KindClientError, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Identity) == "" || req.Secret == "" {
		h.metrics.attempt(outcomeBadRequest)
		writeError(w, classify.KindClientError, msgMissingFields)
		return
	}

	idFP := h.fp.Fingerprint(identity.NormalizeIdentity(req.Identity))

	issued, err := h.auth.Authenticate(ctx, coordinator.Credential{
		Identity: req.Identity,
		Secret:   req.Secret,
	})
	if err != nil {
		switch {
		case errors.Is(err, coordinator.ErrInvalidCredentials):
			h.metrics.attempt(outcomeInvalid)
			h.auditLoginFailed(ctx, ip, ua, idFP, "invalid_credentials")
			writeError(w, classify.KindUnauthorized, msgInvalidCredentials)
		case errors.Is(err, context.Canceled):
			// Client went away; nobody reads this response.
			h.metrics.attempt(outcomeCancelled)
			writeError(w, classify.KindCancelled, msgUnavailable)
		case errors.Is(err, coordinator.ErrLookupUnavailable), errors.Is(err, context.DeadlineExceeded):
			h.metrics.attempt(outcomeError)
			errutil.LogError(h.log, "auth.authenticate.unavailable", err)
			writeError(w, classify.KindTransient, msgUnavailable)
		default:
			h.metrics.attempt(outcomeError)
			errutil.LogError(h.log, "auth.authenticate.fail", err)
			writeError(w, classify.KindUnknown, msgInternal)
		}
		return
	}

	h.metrics.attempt(outcomeSuccess)
	h.auditLoginSuccess(ctx, ip, ua, idFP, issued.Claims.TokenID)
	writeJSON(w, http.StatusOK, authenticateResponse{
		Token:     issued.Token,
		ExpiresAt: issued.Claims.ExpiresAt,
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := h.clock.Now()
	defer func() { h.metrics.observe("session", h.clock.Now().Sub(start).Seconds()) }()

	tok := bearerToken(r)
	if tok == "" {
		h.metrics.validation(outcomeMissing)
		writeError(w, classify.KindUnauthorized, msgInvalidSession)
		return
	}

	claims, err := h.auth.AuthorizeRequest(r.Context(), tok)
	if err != nil {
		h.metrics.validation(sessionOutcome(err))
		writeError(w, classify.KindUnauthorized, msgInvalidSession)
		return
	}

	h.metrics.validation(outcomeValid)
	writeJSON(w, http.StatusOK, toSessionResponse(claims))
}

func sessionOutcome(err error) string {
	switch {
	case errors.Is(err, session.ErrExpired):
		return outcomeExpired
	case errors.Is(err, session.ErrInvalidSignature):
		return outcomeSignature
	case errors.Is(err, session.ErrMalformed):
		return outcomeMalformed
	case errors.Is(err, context.Canceled):
		return outcomeCancelled
	default:
		return outcomeError
	}
}

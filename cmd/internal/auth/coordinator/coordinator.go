// Package coordinator answers the two questions the HTTP boundary asks: "are these
// credentials good, and if so give me a session" and "is this session token valid".
package coordinator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/samber/oops"

	"github.com/moonseer/church-planner-sub001/cmd/identity"
	"github.com/moonseer/church-planner-sub001/cmd/internal/auth/session"
	"github.com/moonseer/church-planner-sub001/cmd/internal/errutil"
	"github.com/moonseer/church-planner-sub001/cmd/security/password"
	"github.com/moonseer/church-planner-sub001/cmd/security/token"
)

// ErrInvalidCredentials is the single outcome for an unknown identity, a wrong secret and an
// unusable stored secret. Callers cannot tell these apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrLookupUnavailable marks a failure to reach the identity store. It is retryable from the
// caller's point of view, unlike other internal failures.
var ErrLookupUnavailable = errors.New("identity lookup unavailable")

// Credential is raw login input. It is never stored or logged.
type Credential struct {
	Identity string
	Secret   string
}

// Hasher is the password work the coordinator needs; *password.Pool implements it.
type Hasher interface {
	Hash(ctx context.Context, secret string) (password.StoredSecret, error)
	Verify(ctx context.Context, secret string, stored password.StoredSecret) (bool, error)
	NeedsRehash(stored password.StoredSecret) bool
}

// Tokens is the session work the coordinator needs; *session.Service implements it.
type Tokens interface {
	Issue(claims session.Claims, policy session.Policy) (session.Issued, error)
	Validate(token string) (session.Claims, error)
}

// SecretUpdater is implemented by identity stores that accept re-hashed secrets.
type SecretUpdater interface {
	UpdateSecret(ctx context.Context, identity string, secret password.StoredSecret, now time.Time) error
}

// Coordinator orchestrates lookup, verification and issuance. It is safe for concurrent use.
type Coordinator struct {
	lookup identity.Lookup
	hasher Hasher
	tokens Tokens

	policy session.Policy
	logger *slog.Logger
	fp     token.Fingerprinter
	clock  clock.Clock

	// dummy is verified against when the identity is unknown so both paths cost one Argon2id run.
	dummy password.StoredSecret
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPolicy overrides session.DefaultPolicy for issued tokens.
func WithPolicy(p session.Policy) Option {
	return func(c *Coordinator) { c.policy = p }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFingerprinter sets how identities and tokens are fingerprinted in logs.
func WithFingerprinter(f token.Fingerprinter) Option {
	return func(c *Coordinator) { c.fp = f }
}

// WithClock sets the clock used to stamp re-hashed secrets (default clock.WallClock).
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// New builds a Coordinator. It hashes a random secret once to back the unknown-identity path.
func New(ctx context.Context, lookup identity.Lookup, hasher Hasher, tokens Tokens, opts ...Option) (*Coordinator, error) {
	if lookup == nil || hasher == nil || tokens == nil {
		return nil, fmt.Errorf("coordinator: nil dependency")
	}

	c := &Coordinator{
		lookup: lookup,
		hasher: hasher,
		tokens: tokens,
		policy: session.DefaultPolicy(),
		logger: slog.Default(),
		clock:  clock.WallClock,
	}
	for _, opt := range opts {
		opt(c)
	}

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").Wrap(err)
	}
	dummy, err := hasher.Hash(ctx, hex.EncodeToString(seed[:]))
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").With("step", "dummy hash").Wrap(err)
	}
	c.dummy = dummy
	return c, nil
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

// Authenticate verifies cred and issues a session for it.
//
// Unknown identity, wrong secret and an undecodable stored secret all return an error
// matching ErrInvalidCredentials with the same message. Lookup and issuance failures are
// internal errors.
func (c *Coordinator) Authenticate(ctx context.Context, cred Credential) (session.Issued, error) {
	idFP := c.fp.Fingerprint(identity.NormalizeIdentity(cred.Identity))

	stored, err := c.lookup.FindByIdentity(ctx, cred.Identity)
	switch {
	case identity.IsNotFound(err):
		if _, verr := c.hasher.Verify(ctx, cred.Secret, c.dummy); verr != nil && ctx.Err() != nil {
			return session.Issued{}, ctx.Err()
		}
		c.logger.InfoContext(ctx, "auth.authenticate.rejected", "reason", "unknown_identity", "identity_fp", idFP)
		return session.Issued{}, invalidCredentials()
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return session.Issued{}, ctxErr
		}
		return session.Issued{}, oops.Code("AUTH_LOOKUP_FAILED").With("identity_fp", idFP).
			Wrap(fmt.Errorf("%w: %w", ErrLookupUnavailable, err))
	}

	ok, err := c.hasher.Verify(ctx, cred.Secret, stored)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return session.Issued{}, ctxErr
		}
		// Corrupt row or hashing failure: fatal for this identity, but the caller still only
		// sees invalid credentials.
		errutil.LogError(c.logger, "auth.authenticate.stored_secret_unusable",
			oops.Code("AUTH_STORED_SECRET_UNUSABLE").With("identity_fp", idFP).Wrap(err))
		return session.Issued{}, invalidCredentials()
	}
	if !ok {
		c.logger.InfoContext(ctx, "auth.authenticate.rejected", "reason", "secret_mismatch", "identity_fp", idFP)
		return session.Issued{}, invalidCredentials()
	}

	issued, err := c.tokens.Issue(session.Claims{
		SubjectID: identity.NormalizeIdentity(cred.Identity),
		Extra:     map[string]any{},
	}, c.policy)
	if err != nil {
		return session.Issued{}, oops.Code("AUTH_ISSUE_FAILED").With("identity_fp", idFP).Wrap(err)
	}

	c.maybeRehash(ctx, cred, stored, idFP)

	c.logger.InfoContext(ctx, "auth.authenticate.succeeded",
		"identity_fp", idFP,
		"token_id", issued.Claims.TokenID,
		"expires_at", issued.Claims.ExpiresAt,
	)
	return issued, nil
}

// maybeRehash upgrades a secret stored with an outdated cost. Failures are logged only.
func (c *Coordinator) maybeRehash(ctx context.Context, cred Credential, stored password.StoredSecret, idFP string) {
	updater, ok := c.lookup.(SecretUpdater)
	if !ok || !c.hasher.NeedsRehash(stored) {
		return
	}
	fresh, err := c.hasher.Hash(ctx, cred.Secret)
	if err == nil {
		err = updater.UpdateSecret(ctx, cred.Identity, fresh, c.clock.Now().UTC())
	}
	if err != nil {
		errutil.LogWarn(c.logger, "auth.rehash.failed", err, "identity_fp", idFP)
		return
	}
	c.logger.InfoContext(ctx, "auth.rehash.completed", "identity_fp", idFP)
}

// AuthorizeRequest validates a bearer token. Session error kinds (session.ErrExpired,
// session.ErrInvalidSignature, session.ErrMalformed) remain matchable with errors.Is.
func (c *Coordinator) AuthorizeRequest(ctx context.Context, tok string) (session.Claims, error) {
	if err := ctx.Err(); err != nil {
		return session.Claims{}, err
	}

	claims, err := c.tokens.Validate(tok)
	if err != nil {
		tokFP := c.fp.Fingerprint(tok)
		c.logger.InfoContext(ctx, "session.rejected", "reason", err.Error(), "token_fp", tokFP)
		return session.Claims{}, oops.Code("SESSION_INVALID").With("token_fp", tokFP).Wrap(err)
	}
	return claims, nil
}

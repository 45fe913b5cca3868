package coordinator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonseer/church-planner-sub001/cmd/identity"
	"github.com/moonseer/church-planner-sub001/cmd/internal/auth/session"
	"github.com/moonseer/church-planner-sub001/cmd/internal/errutil"
	"github.com/moonseer/church-planner-sub001/cmd/security/password"
)

var t0 = time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)

func cheapHashConfig() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 64
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	cfg.Workers = 2
	return cfg
}

type fixture struct {
	coord  *Coordinator
	store  *identity.MemoryStore
	pool   *password.Pool
	tokens *session.Service
	clock  *testclock.Clock
	logs   *bytes.Buffer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	clk := testclock.NewClock(t0)
	cfg := session.DefaultConfig()
	cfg.SecretKeyHex = session.GenerateSecretKeyHex()
	tokens, err := session.NewService(cfg, session.WithClock(clk))
	require.NoError(t, err)

	pool := password.NewPool(cheapHashConfig())
	store := identity.NewMemoryStore()

	hashed, err := pool.Hash(context.Background(), "correct horse battery staple")
	require.NoError(t, err)
	_, err = store.CreateCredential(context.Background(), identity.CreateCredentialInput{
		Identity: "pastor@example.org",
		Secret:   hashed,
	})
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	coord, err := New(context.Background(), store, pool, tokens, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)

	return &fixture{coord: coord, store: store, pool: pool, tokens: tokens, clock: clk, logs: logs}
}

func TestAuthenticate_Success(t *testing.T) {
	f := newFixture(t)

	issued, err := f.coord.Authenticate(context.Background(), Credential{
		Identity: "Pastor@Example.org",
		Secret:   "correct horse battery staple",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, "pastor@example.org", issued.Claims.SubjectID)
	assert.Empty(t, issued.Claims.Extra)
	assert.Equal(t, t0.Add(time.Hour), issued.Claims.ExpiresAt)

	claims, err := f.coord.AuthorizeRequest(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.Claims.TokenID, claims.TokenID)
	assert.Equal(t, issued.Claims.SubjectID, claims.SubjectID)

	assert.NotContains(t, f.logs.String(), "correct horse battery staple")
	assert.NotContains(t, f.logs.String(), issued.Token)
}

func TestAuthenticate_UnknownAndWrongSecretAreIndistinguishable(t *testing.T) {
	f := newFixture(t)

	_, unknownErr := f.coord.Authenticate(context.Background(), Credential{Identity: "nobody@example.org", Secret: "whatever it is"})
	_, wrongErr := f.coord.Authenticate(context.Background(), Credential{Identity: "pastor@example.org", Secret: "wrong secret"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, wrongErr.Error(), unknownErr.Error())
	errutil.AssertErrorCode(t, unknownErr, "AUTH_INVALID_CREDENTIALS")
	errutil.AssertErrorCode(t, wrongErr, "AUTH_INVALID_CREDENTIALS")
}

// countingHasher records Verify calls so the unknown-identity path can be shown to do real work.
type countingHasher struct {
	Hasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(ctx context.Context, secret string, stored password.StoredSecret) (bool, error) {
	h.verifies.Add(1)
	return h.Hasher.Verify(ctx, secret, stored)
}

func TestAuthenticate_UnknownIdentityStillVerifies(t *testing.T) {
	f := newFixture(t)
	h := &countingHasher{Hasher: f.pool}
	coord, err := New(context.Background(), f.store, h, f.tokens)
	require.NoError(t, err)

	_, err = coord.Authenticate(context.Background(), Credential{Identity: "ghost@example.org", Secret: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, int32(1), h.verifies.Load())
}

func TestAuthenticate_CorruptStoredSecretCollapses(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.UpdateSecret(context.Background(), "pastor@example.org", "$argon2id$garbage", time.Time{}))

	_, err := f.coord.Authenticate(context.Background(), Credential{Identity: "pastor@example.org", Secret: "correct horse battery staple"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, password.ErrInvalidStoredSecretFormat)
	assert.Contains(t, f.logs.String(), "auth.authenticate.stored_secret_unusable")
	assert.Contains(t, f.logs.String(), "AUTH_STORED_SECRET_UNUSABLE")
}

type failingLookup struct{ err error }

func (l failingLookup) FindByIdentity(context.Context, string) (password.StoredSecret, error) {
	return "", l.err
}

func TestAuthenticate_LookupFailure(t *testing.T) {
	f := newFixture(t)
	coord, err := New(context.Background(), failingLookup{err: errors.New("connection reset")}, f.pool, f.tokens)
	require.NoError(t, err)

	_, err = coord.Authenticate(context.Background(), Credential{Identity: "pastor@example.org", Secret: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrLookupUnavailable)
	errutil.AssertErrorCode(t, err, "AUTH_LOOKUP_FAILED")
}

type failingTokens struct{ Tokens }

func (failingTokens) Issue(session.Claims, session.Policy) (session.Issued, error) {
	return session.Issued{}, errors.New("entropy exhausted")
}

func TestAuthenticate_IssueFailure(t *testing.T) {
	f := newFixture(t)
	coord, err := New(context.Background(), f.store, f.pool, failingTokens{Tokens: f.tokens})
	require.NoError(t, err)

	_, err = coord.Authenticate(context.Background(), Credential{Identity: "pastor@example.org", Secret: "correct horse battery staple"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_ISSUE_FAILED")
}

func TestAuthenticate_RehashesOutdatedSecret(t *testing.T) {
	f := newFixture(t)

	stronger := cheapHashConfig()
	stronger.Params.Iterations = 2
	pool := password.NewPool(stronger)
	coord, err := New(context.Background(), f.store, pool, f.tokens)
	require.NoError(t, err)

	_, err = coord.Authenticate(context.Background(), Credential{Identity: "pastor@example.org", Secret: "correct horse battery staple"})
	require.NoError(t, err)

	stored, err := f.store.FindByIdentity(context.Background(), "pastor@example.org")
	require.NoError(t, err)
	assert.False(t, stronger.NeedsRehash(stored))
	ok, err := stronger.Verify("correct horse battery staple", stored)
	require.NoError(t, err)
	assert.True(t, ok)
}

type recordingStore struct {
	*identity.MemoryStore
	stampedAt time.Time
}

func (r *recordingStore) UpdateSecret(ctx context.Context, id string, secret password.StoredSecret, now time.Time) error {
	r.stampedAt = now
	return r.MemoryStore.UpdateSecret(ctx, id, secret, now)
}

func TestAuthenticate_RehashUsesInjectedClock(t *testing.T) {
	f := newFixture(t)
	store := &recordingStore{MemoryStore: f.store}

	stronger := cheapHashConfig()
	stronger.Params.Iterations = 2
	coord, err := New(context.Background(), store, password.NewPool(stronger), f.tokens, WithClock(f.clock))
	require.NoError(t, err)

	_, err = coord.Authenticate(context.Background(), Credential{Identity: "pastor@example.org", Secret: "correct horse battery staple"})
	require.NoError(t, err)
	assert.True(t, store.stampedAt.Equal(t0), "stamped at %v", store.stampedAt)
}

func TestAuthenticate_CustomPolicy(t *testing.T) {
	f := newFixture(t, WithPolicy(session.Policy{TTL: 15 * time.Minute}))

	issued, err := f.coord.Authenticate(context.Background(), Credential{Identity: "pastor@example.org", Secret: "correct horse battery staple"})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(15*time.Minute), issued.Claims.ExpiresAt)
}

func TestAuthorizeRequest_PropagatesSessionKinds(t *testing.T) {
	f := newFixture(t)
	issued, err := f.coord.Authenticate(context.Background(), Credential{Identity: "pastor@example.org", Secret: "correct horse battery staple"})
	require.NoError(t, err)

	_, err = f.coord.AuthorizeRequest(context.Background(), "v4.public.nope")
	assert.ErrorIs(t, err, session.ErrMalformed)
	errutil.AssertErrorCode(t, err, "SESSION_INVALID")

	f.clock.Advance(2 * time.Hour)
	_, err = f.coord.AuthorizeRequest(context.Background(), issued.Token)
	assert.ErrorIs(t, err, session.ErrExpired)
	assert.Contains(t, f.logs.String(), "session.rejected")
	assert.NotContains(t, f.logs.String(), issued.Token)
}

func TestAuthorizeRequest_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.coord.AuthorizeRequest(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_NilDependencies(t *testing.T) {
	_, err := New(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}

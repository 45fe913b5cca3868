package session

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/juju/clock"

	"github.com/moonseer/church-planner-sub001/cmd/identity/ids"
)

const (
	v4PublicHeader = "v4.public."
	extraClaim     = "ext"
)

// Service issues and validates PASETO v4.public session tokens.
// It is safe for concurrent use; the key pair is read-only after construction.
type Service struct {
	issuer string
	clock  clock.Clock

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for IssuedAt and expiry checks.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewService builds a Service from cfg. The secret key must be a hex Ed25519 secret key.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.SecretKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: secret key: %v", ErrConfig, err)
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("%w: empty issuer", ErrConfig)
	}

	s := &Service{
		issuer: cfg.Issuer,
		clock:  clock.WallClock,
		secret: secret,
		public: secret.Public(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PublicKeyHex exports the verification key.
func (s *Service) PublicKeyHex() string {
	return s.public.ExportHex()
}

// Issue signs a new token for claims.SubjectID valid for policy.TTL from now.
// TokenID, IssuedAt and ExpiresAt in the input are ignored and assigned here.
func (s *Service) Issue(claims Claims, policy Policy) (Issued, error) {
	if claims.SubjectID == "" {
		return Issued{}, fmt.Errorf("%w: empty subject", ErrInvalidClaims)
	}
	if err := policy.validate(); err != nil {
		return Issued{}, err
	}
	extra, err := normalizeExtra(claims.Extra)
	if err != nil {
		return Issued{}, err
	}

	// The wire format carries RFC 3339 seconds; truncate so the returned claims match what
	// Validate will decode.
	now := s.clock.Now().UTC().Truncate(time.Second)
	exp := now.Add(policy.TTL).Truncate(time.Second)

	jti, err := ids.NewULID(now)
	if err != nil {
		return Issued{}, fmt.Errorf("token id: %w", err)
	}

	tok := paseto.NewToken()
	tok.SetIssuer(s.issuer)
	tok.SetSubject(claims.SubjectID)
	tok.SetJti(jti)
	tok.SetIssuedAt(now)
	tok.SetExpiration(exp)
	if err := tok.Set(extraClaim, extra); err != nil {
		return Issued{}, fmt.Errorf("%w: extra: %v", ErrInvalidClaims, err)
	}

	return Issued{
		Token: tok.V4Sign(s.secret, nil),
		Claims: Claims{
			TokenID:   jti,
			SubjectID: claims.SubjectID,
			IssuedAt:  now,
			ExpiresAt: exp,
			Extra:     extra,
		},
	}, nil
}

// Validate authenticates token and returns its claims.
//
// Checks run in a fixed order: structure (ErrMalformed), signature (ErrInvalidSignature),
// claim decoding (ErrMalformed), then expiry (ErrExpired). No claim is read before the
// signature has been verified.
func (s *Service) Validate(token string) (Claims, error) {
	if err := checkStructure(token); err != nil {
		return Claims{}, err
	}

	// Expiry is judged below against the injected clock, not the parser's wall clock.
	parser := paseto.NewParserWithoutExpiryCheck()
	parsed, err := parser.ParseV4Public(s.public, token, nil)
	if err != nil {
		return Claims{}, ErrInvalidSignature
	}

	claims, err := s.decodeClaims(parsed)
	if err != nil {
		return Claims{}, err
	}

	if s.clock.Now().After(claims.ExpiresAt) {
		return Claims{}, ErrExpired
	}
	return claims, nil
}

// checkStructure rejects anything that is not shaped like a footer-less v4.public token.
func checkStructure(token string) error {
	if !strings.HasPrefix(token, v4PublicHeader) {
		return ErrMalformed
	}
	body := token[len(v4PublicHeader):]
	if strings.Contains(body, ".") {
		return ErrMalformed
	}
	if base64.RawURLEncoding.DecodedLen(len(body)) <= ed25519.SignatureSize {
		return ErrMalformed
	}
	// From here the token has the right shape, so any damage to the body is a signature
	// failure. Strict decoding also rejects non-zero trailing bits, which would otherwise
	// decode to the same bytes this service signed.
	if _, err := base64.RawURLEncoding.Strict().DecodeString(body); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

func (s *Service) decodeClaims(t *paseto.Token) (Claims, error) {
	iss, err := t.GetIssuer()
	if err != nil || iss != s.issuer {
		return Claims{}, ErrMalformed
	}
	sub, err := t.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, ErrMalformed
	}
	jti, err := t.GetJti()
	if err != nil {
		return Claims{}, ErrMalformed
	}
	iat, err := t.GetIssuedAt()
	if err != nil {
		return Claims{}, ErrMalformed
	}
	exp, err := t.GetExpiration()
	if err != nil || !exp.After(iat) {
		return Claims{}, ErrMalformed
	}

	var extra map[string]any
	if err := t.Get(extraClaim, &extra); err != nil {
		return Claims{}, ErrMalformed
	}
	if extra == nil {
		extra = map[string]any{}
	}

	return Claims{
		TokenID:   jti,
		SubjectID: sub,
		IssuedAt:  iat.UTC(),
		ExpiresAt: exp.UTC(),
		Extra:     extra,
	}, nil
}

package session

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
)

var t0 = time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*Service, *testclock.Clock) {
	t.Helper()

	clk := testclock.NewClock(t0)
	cfg := DefaultConfig()
	cfg.SecretKeyHex = GenerateSecretKeyHex()

	svc, err := NewService(cfg, append([]Option{WithClock(clk)}, opts...)...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, clk
}

func TestIssueAndValidate_RoundTrip(t *testing.T) {
	svc, clk := newTestService(t)

	in := Claims{
		SubjectID: "pastor@example.org",
		Extra:     map[string]any{"campus": "north", "volunteer": true, "rank": 2},
	}
	issued, err := svc.Issue(in, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !strings.HasPrefix(issued.Token, "v4.public.") {
		t.Fatalf("unexpected token format: %q", issued.Token)
	}
	if !issued.Claims.IssuedAt.Equal(t0) || !issued.Claims.ExpiresAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("unexpected times: %+v", issued.Claims)
	}
	if len(issued.Claims.TokenID) != 26 {
		t.Fatalf("expected ULID token id, got %q", issued.Claims.TokenID)
	}

	clk.Advance(30 * time.Minute)

	got, err := svc.Validate(issued.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.SubjectID != in.SubjectID || got.TokenID != issued.Claims.TokenID {
		t.Fatalf("claims mismatch: got %+v want %+v", got, issued.Claims)
	}
	if !got.IssuedAt.Equal(issued.Claims.IssuedAt) || !got.ExpiresAt.Equal(issued.Claims.ExpiresAt) {
		t.Fatalf("time mismatch: got %+v want %+v", got, issued.Claims)
	}
	want := map[string]any{"campus": "north", "volunteer": true, "rank": float64(2)}
	if !reflect.DeepEqual(got.Extra, want) {
		t.Fatalf("extra mismatch: got %#v want %#v", got.Extra, want)
	}
}

func TestIssue_NilExtraBecomesEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(Claims{SubjectID: "deacon"}, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := svc.Validate(issued.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.Extra == nil || len(got.Extra) != 0 {
		t.Fatalf("expected empty extra, got %#v", got.Extra)
	}
}

func TestIssue_UniquePerCall(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Issue(Claims{SubjectID: "same"}, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := svc.Issue(Claims{SubjectID: "same"}, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a.Token == b.Token || a.Claims.TokenID == b.Claims.TokenID {
		t.Fatalf("expected distinct tokens at the same instant")
	}
}

func TestValidate_Expired(t *testing.T) {
	svc, clk := newTestService(t)

	issued, err := svc.Issue(Claims{SubjectID: "usher"}, Policy{TTL: 10 * time.Minute})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Exactly at ExpiresAt the token is still accepted.
	clk.Advance(10 * time.Minute)
	if _, err := svc.Validate(issued.Token); err != nil {
		t.Fatalf("Validate at expiry instant: %v", err)
	}

	clk.Advance(time.Second)
	if _, err := svc.Validate(issued.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

const b64url = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func TestValidate_AnySingleCharacterChangeBreaksSignature(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(Claims{SubjectID: "choir", Extra: map[string]any{"k": "v"}}, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tok := issued.Token
	for i := len(v4PublicHeader); i < len(tok); i++ {
		orig := tok[i]
		repl := b64url[(strings.IndexByte(b64url, orig)+1)%len(b64url)]

		tampered := tok[:i] + string(repl) + tok[i+1:]
		if _, err := svc.Validate(tampered); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("position %d (%q -> %q): expected ErrInvalidSignature, got %v", i, orig, repl, err)
		}
	}

	if _, err := svc.Validate(tok); err != nil {
		t.Fatalf("original token must still validate: %v", err)
	}
}

func TestValidate_NonAlphabetCharacterInBodyIsInvalidSignature(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(Claims{SubjectID: "deacon"}, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tok := issued.Token
	positions := []int{len(v4PublicHeader), len(v4PublicHeader) + 15, len(tok) / 2, len(tok) - 1}
	for _, i := range positions {
		for _, repl := range []string{"!", "+", "/", "=", " ", "~"} {
			tampered := tok[:i] + repl + tok[i+1:]
			if _, err := svc.Validate(tampered); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("position %d -> %q: expected ErrInvalidSignature, got %v", i, repl, err)
			}
		}
	}
}

func TestValidate_ForeignKey(t *testing.T) {
	svc, _ := newTestService(t)
	other, _ := newTestService(t)

	issued, err := other.Issue(Claims{SubjectID: "intruder"}, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Validate(issued.Token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_SignatureCheckedBeforeExpiry(t *testing.T) {
	svc, clk := newTestService(t)
	other, _ := newTestService(t)

	issued, err := other.Issue(Claims{SubjectID: "intruder"}, Policy{TTL: time.Second})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clk.Advance(time.Hour)
	if _, err := svc.Validate(issued.Token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_Malformed(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(Claims{SubjectID: "elder"}, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := map[string]string{
		"empty":         "",
		"wrong purpose": "v4.local." + strings.TrimPrefix(issued.Token, "v4.public."),
		"wrong version": "v2.public." + strings.TrimPrefix(issued.Token, "v4.public."),
		"not base64":    "v4.public.%%%%",
		"too short":     "v4.public.AAAA",
		"footer":        issued.Token + ".Zm9vdGVy",
		"garbage":       "hello world",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Validate(tok); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestValidate_IssuerMismatchIsMalformed(t *testing.T) {
	key := GenerateSecretKeyHex()
	clk := testclock.NewClock(t0)

	a, err := NewService(Config{Issuer: "planner", SecretKeyHex: key}, WithClock(clk))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	b, err := NewService(Config{Issuer: "someone-else", SecretKeyHex: key}, WithClock(clk))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	issued, err := b.Issue(Claims{SubjectID: "x"}, DefaultPolicy())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := a.Validate(issued.Token); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestIssue_Rejects(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Issue(Claims{}, DefaultPolicy()); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("empty subject: expected ErrInvalidClaims, got %v", err)
	}
	if _, err := svc.Issue(Claims{SubjectID: "x"}, Policy{TTL: 500 * time.Millisecond}); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("short ttl: expected ErrInvalidPolicy, got %v", err)
	}
	if _, err := svc.Issue(Claims{SubjectID: "x"}, Policy{}); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("zero ttl: expected ErrInvalidPolicy, got %v", err)
	}
	nested := Claims{SubjectID: "x", Extra: map[string]any{"roles": []string{"admin"}}}
	if _, err := svc.Issue(nested, DefaultPolicy()); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("non-scalar extra: expected ErrInvalidClaims, got %v", err)
	}
}

func TestNewService_BadConfig(t *testing.T) {
	if _, err := NewService(Config{Issuer: "planner", SecretKeyHex: "zz"}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for bad key, got %v", err)
	}
	if _, err := NewService(Config{SecretKeyHex: GenerateSecretKeyHex()}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for empty issuer, got %v", err)
	}
}

func TestPublicKeyHex(t *testing.T) {
	svc, _ := newTestService(t)
	if len(svc.PublicKeyHex()) != 64 {
		t.Fatalf("expected 32-byte hex public key, got %q", svc.PublicKeyHex())
	}
}

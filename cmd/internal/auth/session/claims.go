package session

import (
	"fmt"
	"time"
)

// Claims is the payload signed into a session token.
type Claims struct {
	TokenID   string
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Extra holds caller-supplied scalar values (string, bool or float64).
	Extra map[string]any
}

// Policy controls how long an issued token stays valid.
type Policy struct {
	TTL time.Duration
}

// DefaultPolicy is the one-hour policy used for interactive logins.
func DefaultPolicy() Policy {
	return Policy{TTL: time.Hour}
}

// Issued is the result of a successful Issue.
type Issued struct {
	Token  string
	Claims Claims
}

func (p Policy) validate() error {
	// Claims carry second precision, so anything shorter would produce ExpiresAt == IssuedAt.
	if p.TTL < time.Second {
		return fmt.Errorf("%w: ttl %s", ErrInvalidPolicy, p.TTL)
	}
	return nil
}

// normalizeExtra copies extra, rejecting values that would not survive the JSON round trip
// unchanged. Integers are widened to float64.
func normalizeExtra(extra map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		switch x := v.(type) {
		case string, bool, float64:
			out[k] = x
		case int:
			out[k] = float64(x)
		case int64:
			out[k] = float64(x)
		default:
			return nil, fmt.Errorf("%w: extra %q has type %T", ErrInvalidClaims, k, v)
		}
	}
	return out, nil
}

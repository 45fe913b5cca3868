package identity

import (
	"context"
	"time"

	"github.com/moonseer/church-planner-sub001/cmd/security/password"
)

// Credential is a stored login identity.
type Credential struct {
	ID           string
	Identity     string
	IdentityNorm string
	Secret       password.StoredSecret

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lookup is the read side consumed by authentication.
type Lookup interface {
	// FindByIdentity returns the stored secret for identity, or an error matching ErrNotFound.
	FindByIdentity(ctx context.Context, identity string) (password.StoredSecret, error)
}

// CreateCredentialInput describes an enrollment. Secret must already be hashed.
type CreateCredentialInput struct {
	Identity string
	Secret   password.StoredSecret
	Now      time.Time
}

// Store is the full identity persistence boundary.
type Store interface {
	Lookup

	CreateCredential(ctx context.Context, in CreateCredentialInput) (Credential, error)

	// UpdateSecret replaces the stored secret, e.g. after a cost upgrade.
	UpdateSecret(ctx context.Context, identity string, secret password.StoredSecret, now time.Time) error
}

func validateCreate(op string, in CreateCredentialInput) (CreateCredentialInput, string, error) {
	in.Identity = trimmed(in.Identity)
	if in.Identity == "" {
		return in, "", invalid(op, "identity is required")
	}
	if len(in.Identity) > maxIdentityLen {
		return in, "", invalid(op, "identity too long")
	}
	if in.Secret == "" {
		return in, "", invalid(op, "secret is required")
	}
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}
	return in, NormalizeIdentity(in.Identity), nil
}

const maxIdentityLen = 320

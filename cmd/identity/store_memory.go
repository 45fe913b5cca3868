package identity

import (
	"context"
	"sync"
	"time"

	"github.com/moonseer/church-planner-sub001/cmd/identity/ids"
	"github.com/moonseer/church-planner-sub001/cmd/security/password"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential // keyed by IdentityNorm
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

// FindByIdentity implements Lookup.
func (m *MemoryStore) FindByIdentity(ctx context.Context, identity string) (password.StoredSecret, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	c, ok := m.creds[NormalizeIdentity(identity)]
	m.mu.RUnlock()
	if !ok {
		return "", NotFoundError{Op: "identity.FindByIdentity", Resource: "credential"}
	}
	return c.Secret, nil
}

// CreateCredential implements Store.
func (m *MemoryStore) CreateCredential(ctx context.Context, in CreateCredentialInput) (Credential, error) {
	const op = "identity.CreateCredential"

	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}
	in, norm, err := validateCreate(op, in)
	if err != nil {
		return Credential{}, err
	}
	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Credential{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.creds[norm]; exists {
		return Credential{}, ConflictError{Op: op, Field: "identity"}
	}
	c := Credential{
		ID:           id,
		Identity:     in.Identity,
		IdentityNorm: norm,
		Secret:       in.Secret,
		CreatedAt:    in.Now,
		UpdatedAt:    in.Now,
	}
	m.creds[norm] = c
	return c, nil
}

// UpdateSecret implements Store.
func (m *MemoryStore) UpdateSecret(ctx context.Context, identity string, secret password.StoredSecret, now time.Time) error {
	const op = "identity.UpdateSecret"

	if err := ctx.Err(); err != nil {
		return err
	}
	if secret == "" {
		return invalid(op, "secret is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	norm := NormalizeIdentity(identity)
	c, ok := m.creds[norm]
	if !ok {
		return NotFoundError{Op: op, Resource: "credential"}
	}
	c.Secret = secret
	c.UpdatedAt = now
	m.creds[norm] = c
	return nil
}

// Len reports the number of stored credentials.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.creds)
}

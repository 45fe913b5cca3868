package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/moonseer/church-planner-sub001/cmd/identity/ids"
	"github.com/moonseer/church-planner-sub001/cmd/security/password"
)

// poolIface is the subset of pgxpool.Pool the store needs; pgxmock satisfies it in tests.
type poolIface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// credentialsTable is the table created by the embedded migrations.
var credentialsTable = pgx.Identifier{"planner", "credentials"}.Sanitize()

// PostgresStore implements Store over PostgreSQL.
//
// The pool is owned by the caller; this store never closes it.
type PostgresStore struct {
	pool poolIface
}

// NewPostgresStore constructs a PostgresStore. pool is usually a *pgxpool.Pool.
func NewPostgresStore(pool poolIface) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) table() string { return credentialsTable }

// FindByIdentity implements Lookup.
func (s *PostgresStore) FindByIdentity(ctx context.Context, identity string) (password.StoredSecret, error) {
	const op = "identity.FindByIdentity"

	norm := NormalizeIdentity(identity)
	if norm == "" {
		return "", NotFoundError{Op: op, Resource: "credential"}
	}

	var secret string
	err := s.pool.QueryRow(ctx,
		`SELECT secret_hash FROM `+s.table()+` WHERE identity_norm = $1`,
		norm,
	).Scan(&secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", NotFoundError{Op: op, Resource: "credential"}
		}
		return "", oops.Code("IDENTITY_LOOKUP_FAILED").With("op", op).Wrap(err)
	}
	return password.StoredSecret(secret), nil
}

// CreateCredential inserts a new credential. A duplicate normalized identity is a ConflictError.
func (s *PostgresStore) CreateCredential(ctx context.Context, in CreateCredentialInput) (Credential, error) {
	const op = "identity.CreateCredential"

	in, norm, err := validateCreate(op, in)
	if err != nil {
		return Credential{}, err
	}

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Credential{}, oops.Code("IDENTITY_ID_FAILED").With("op", op).Wrap(err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (id, identity, identity_norm, secret_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		id, in.Identity, norm, in.Secret.String(), in.Now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Credential{}, ConflictError{Op: op, Field: "identity"}
		}
		return Credential{}, oops.Code("IDENTITY_CREATE_FAILED").With("op", op).Wrap(err)
	}

	return Credential{
		ID:           id,
		Identity:     in.Identity,
		IdentityNorm: norm,
		Secret:       in.Secret,
		CreatedAt:    in.Now,
		UpdatedAt:    in.Now,
	}, nil
}

// UpdateSecret replaces the stored secret for identity.
func (s *PostgresStore) UpdateSecret(ctx context.Context, identity string, secret password.StoredSecret, now time.Time) error {
	const op = "identity.UpdateSecret"

	if secret == "" {
		return invalid(op, "secret is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table()+` SET secret_hash = $1, updated_at = $2 WHERE identity_norm = $3`,
		secret.String(), now, NormalizeIdentity(identity),
	)
	if err != nil {
		return oops.Code("IDENTITY_UPDATE_FAILED").With("op", op).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "credential"}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Package identity is the planner's credential persistence boundary.
//
// It owns the mapping from a login identity (an e-mail address or username) to the stored
// Argon2id secret, and nothing else: no profile data, no roles. The authentication path only
// needs Lookup; enrollment tooling uses the full Store.
//
// Two implementations are provided: PostgresStore (pgx) for deployments and MemoryStore for
// development and tests. Schema migrations are embedded and applied with Migrator.
package identity

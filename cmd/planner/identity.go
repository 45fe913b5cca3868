package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/moonseer/church-planner-sub001/cmd/identity"
	"github.com/moonseer/church-planner-sub001/cmd/internal/app"
	"github.com/moonseer/church-planner-sub001/cmd/security/password"
)

// NewIdentityCmd creates the identity subcommand.
func NewIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Manage login identities",
	}
	cmd.AddCommand(newIdentityAddCmd())
	return cmd
}

func newIdentityAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <identity>",
		Short: "Enroll an identity with a secret read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hashCfg, err := password.FromEnv()
			if err != nil {
				return err
			}

			cfg, err := app.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return oops.Code("CONFIG_INVALID").Errorf("database_url (PLANNER_DATABASE_URL) is required")
			}
			stores, err := app.OpenStores(cmd.Context(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				return err
			}
			defer stores.Close()

			cred, err := enroll(cmd, stores.Identity, hashCfg, args[0], secret)
			if err != nil {
				return err
			}
			cmd.Printf("enrolled %s (id %s)\n", cred.IdentityNorm, cred.ID)
			return nil
		},
	}
}

// enroll applies the password policy, hashes and stores one credential.
func enroll(cmd *cobra.Command, store identity.Store, cfg password.Config, id, secret string) (identity.Credential, error) {
	if err := cfg.Validate(secret); err != nil {
		return identity.Credential{}, oops.Code("SECRET_REJECTED").Wrap(err)
	}
	stored, err := password.NewPool(cfg).Hash(cmd.Context(), secret)
	if err != nil {
		return identity.Credential{}, err
	}
	cred, err := store.CreateCredential(cmd.Context(), identity.CreateCredentialInput{
		Identity: id,
		Secret:   stored,
		Now:      time.Now().UTC(),
	})
	if identity.IsConflict(err) {
		return identity.Credential{}, oops.Code("IDENTITY_EXISTS").With("identity", identity.NormalizeIdentity(id)).Wrap(err)
	}
	return cred, err
}

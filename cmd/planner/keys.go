package main

import (
	"github.com/spf13/cobra"

	"github.com/moonseer/church-planner-sub001/cmd/internal/auth/session"
	"github.com/moonseer/church-planner-sub001/cmd/security/password"
)

// NewKeygenCmd creates the keygen subcommand.
func NewKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a session signing key",
		Long: `Generate a fresh Ed25519 key for v4.public session tokens. The secret line is
ready to paste into the server environment; the public key is for verifiers.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := session.DefaultConfig()
			cfg.SecretKeyHex = session.GenerateSecretKeyHex()
			svc, err := session.NewService(cfg)
			if err != nil {
				return err
			}
			cmd.Printf("PLANNER_SESSION_SECRET_KEY_HEX=%s\n", cfg.SecretKeyHex)
			cmd.Printf("# public key: %s\n", svc.PublicKeyHex())
			return nil
		},
	}
}

// NewHashSecretCmd creates the hash-secret subcommand.
func NewHashSecretCmd() *cobra.Command {
	var skipPolicy bool
	cmd := &cobra.Command{
		Use:   "hash-secret",
		Short: "Hash a secret read from stdin",
		Long: `Read one line from stdin and print its Argon2id stored form using the cost
configured by PLANNER_ARGON2_* variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := password.FromEnv()
			if err != nil {
				return err
			}
			if !skipPolicy {
				if err := cfg.Validate(secret); err != nil {
					return err
				}
			}
			stored, err := cfg.Hash(secret)
			if err != nil {
				return err
			}
			cmd.Println(stored.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipPolicy, "skip-policy", false, "do not enforce the password policy")
	return cmd
}

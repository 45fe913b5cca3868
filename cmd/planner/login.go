package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/classify"
	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/client"
)

// NewLoginCmd creates the login subcommand.
func NewLoginCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "login <identity>",
		Short: "Authenticate against a running server",
		Long: `Send <identity> and a secret read from stdin to POST /authenticate, retrying
transient failures per PLANNER_CLIENT_* settings, and print the issued token.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := client.ConfigFromEnv()
			if err != nil {
				return err
			}
			if server != "" {
				cfg.BaseURL = server
			}
			c, err := client.New(cfg)
			if err != nil {
				return err
			}

			sess, err := c.Authenticate(cmd.Context(), args[0], secret)
			if err != nil {
				cmd.PrintErrf("login failed (%s): %s\n", classify.KindOf(err), userMessage(err))
				return err
			}
			cmd.Println(sess.Token)
			cmd.PrintErrf("expires %s\n", sess.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server base URL (default $PLANNER_CLIENT_BASE_URL)")
	return cmd
}

func userMessage(err error) string {
	var ce *classify.Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return classify.DefaultMessage(classify.KindUnknown)
}

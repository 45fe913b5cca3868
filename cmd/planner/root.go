package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/moonseer/church-planner-sub001/cmd/internal/app"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the planner CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Church planner credential and session service",
		Long: `planner runs the credential and session service and provides admin commands
for schema migrations, key generation and identity enrollment.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $"+app.ConfigPathEnv+")")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewKeygenCmd())
	cmd.AddCommand(NewHashSecretCmd())
	cmd.AddCommand(NewIdentityCmd())
	cmd.AddCommand(NewLoginCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server exposing /authenticate, /session, /healthz, /readyz and
/metrics. Runs until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), configFile)
		},
	}
}

// readSecret reads one line from r. Secrets are taken from stdin so they stay out of shell
// history and process listings.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("SECRET_READ_FAILED").Wrap(err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", oops.Code("SECRET_REQUIRED").Errorf("secret is required on stdin")
	}
	return line, nil
}

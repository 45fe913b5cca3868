package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/moonseer/church-planner-sub001/cmd/identity"
	"github.com/moonseer/church-planner-sub001/cmd/internal/app"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the identity schema",
		Long:  `Apply, roll back or inspect the embedded identity schema migrations.`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: runMigrate(func(cmd *cobra.Command, m *identity.Migrator) error {
			cmd.Println("Running migrations...")
			if err := m.Up(); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: runMigrate(func(cmd *cobra.Command, m *identity.Migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Migrations rolled back")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: runMigrate(func(cmd *cobra.Command, m *identity.Migrator) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("version=%d dirty=%t\n", v, dirty)
			return nil
		}),
	})
	return cmd
}

func runMigrate(fn func(*cobra.Command, *identity.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		databaseURL, err := requireDatabaseURL()
		if err != nil {
			return err
		}
		m, err := identity.NewMigrator(databaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
		return fn(cmd, m)
	}
}

func requireDatabaseURL() (string, error) {
	cfg, err := app.LoadConfig(configFile)
	if err != nil {
		return "", err
	}
	if cfg.DatabaseURL == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("database_url (PLANNER_DATABASE_URL) is required")
	}
	return cfg.DatabaseURL, nil
}

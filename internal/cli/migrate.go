package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sakif/pm-tracker/internal/config"
	"github.com/sakif/pm-tracker/internal/repository/postgres"
)

var errMigrateSQLite = errors.New("migrations apply to postgres only; sqlite creates its schema on open")

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run Postgres schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all up migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				dsn, err := a.postgresDSN()
				if err != nil {
					return err
				}
				if err := postgres.MigrateUp(dsn); err != nil {
					return err
				}
				return a.printVersion(cmd, dsn)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				dsn, err := a.postgresDSN()
				if err != nil {
					return err
				}
				if err := postgres.MigrateDown(dsn); err != nil {
					return err
				}
				return a.printVersion(cmd, dsn)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				dsn, err := a.postgresDSN()
				if err != nil {
					return err
				}
				return a.printVersion(cmd, dsn)
			},
		},
	)
	return cmd
}

func (a *app) postgresDSN() (string, error) {
	if a.cfg.Database.Driver != config.DriverPostgres {
		return "", errMigrateSQLite
	}
	return a.cfg.Database.Postgres().DSN(), nil
}

func (a *app) printVersion(cmd *cobra.Command, dsn string) error {
	version, dirty, ok, err := postgres.MigrationVersion(dsn)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		printf(cmd, "no migrations applied\n")
	case dirty:
		printf(cmd, "version %d (dirty)\n", version)
	default:
		printf(cmd, "version %d\n", version)
	}
	return nil
}

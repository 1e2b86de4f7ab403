// Package cli implements the pmtracker command: the API server, database
// maintenance and a terminal client for the API.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/pm-tracker/internal/client"
	"github.com/sakif/pm-tracker/internal/config"
)

type app struct {
	cfg    config.Config
	logger *slog.Logger

	apiURL      string
	sessionPath string
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pmtracker",
		Short: "Multi-user project tracker",
		Long: `pmtracker runs the project tracker API and talks to it.

	pmtracker server                 start the API
	pmtracker migrate up             apply Postgres migrations
	pmtracker seed                   load sample users and projects
	pmtracker login --email a@x.com  sign in and keep the session
	pmtracker projects list          list your projects
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (default $PMTRACKER_API_URL)")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", "", "session file (default <user config dir>/pmtracker/session.json)")

	root.AddCommand(
		a.serverCmd(),
		a.migrateCmd(),
		a.seedCmd(),
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.projectsCmd(),
		a.healthCmd(),
	)
	return root
}

func (a *app) init(logOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// newLogger builds the process logger: text for humans, JSON for collectors.
func newLogger(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (a *app) client() (*client.Client, error) {
	path := a.sessionPath
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return nil, err
		}
	}

	baseURL := a.apiURL
	if baseURL == "" {
		baseURL = a.cfg.APIURL
	}
	return client.New(baseURL, client.NewFileStore(path))
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

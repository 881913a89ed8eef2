package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/userbase/userbase/internal/config"
)

// app is the state shared by every command once configuration is loaded.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

// newRootCmd builds the CLI. With no subcommand it behaves like "serve".
// The returned app must be closed after the command finishes.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "userbase",
		Short: "Userbase API: list and create users backed by PostgreSQL",
		Long: `Userbase API server.

Commands:
  serve          Run the HTTP server (default)
  migrate up     Apply pending schema migrations
  migrate status Show applied and pending migrations

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a, migrateFirst)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMigrateCmd(a))

	return cmd, a
}

// init loads configuration and installs the default logger.
func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closer, err := initLogger(cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer
	return nil
}

func (a *app) close() error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

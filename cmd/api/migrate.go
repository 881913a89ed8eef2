package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/userbase/userbase/internal/migrate"
	"github.com/userbase/userbase/internal/repository"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations in version order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer repo.Close()

			results, err := applyMigrations(cmd.Context(), repo, a.logger)
			printResults(cmd.OutOrStdout(), results)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each has been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer repo.Close()

			runner, err := migrate.New(repo.Pool(), a.logger)
			if err != nil {
				return err
			}
			defer runner.Close()

			states, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), states)
			return nil
		},
	})

	return cmd
}

// applyMigrations runs every pending unit against the repository's pool.
func applyMigrations(ctx context.Context, repo *repository.Repository, logger *slog.Logger) ([]migrate.Result, error) {
	runner, err := migrate.New(repo.Pool(), logger)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	return runner.Up(ctx)
}

func printResults(w io.Writer, results []migrate.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no pending migrations")
		return
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%-7s %s: %v\n", r.Status, r.Name, r.Err)
			continue
		}
		fmt.Fprintf(w, "%-7s %s (%s)\n", r.Status, r.Name, r.Duration.Round(time.Millisecond))
	}
}

func printStatus(w io.Writer, states []migrate.UnitState) {
	for _, s := range states {
		if s.Applied {
			fmt.Fprintf(w, "applied  %s  %s\n", s.Name, s.AppliedAt.Format(time.RFC3339))
			continue
		}
		fmt.Fprintf(w, "pending  %s\n", s.Name)
	}
}

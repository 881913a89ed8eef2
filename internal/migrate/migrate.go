// Package migrate applies the embedded schema migrations.
//
// Migrations are forward-only: units are applied in version order, each at most
// once per database, and recorded in the goose_db_version ledger table. There is
// no down path. A Postgres advisory lock serializes runners started concurrently
// against the same database.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"

	"github.com/userbase/userbase/migrations"
)

// ResultStatus is the outcome of applying one migration unit.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "Success"
	StatusError   ResultStatus = "Error"
)

// Result reports a single applied (or failed) migration unit.
type Result struct {
	Version  int64
	Name     string
	Status   ResultStatus
	Duration time.Duration
	Err      error
}

// UnitState describes whether a unit has been recorded in the ledger.
type UnitState struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Runner applies pending migration units.
type Runner struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// New creates a Runner for the embedded migrations on top of an existing pool.
// Closing the Runner releases its database handle but leaves the pool open.
func New(pool *pgxpool.Pool, logger *slog.Logger) (*Runner, error) {
	return NewFromDB(stdlib.OpenDBFromPool(pool), migrations.FS, logger)
}

// NewFromDB creates a Runner for the migration units found in fsys.
// The Runner takes ownership of db.
func NewFromDB(db *sql.DB, fsys fs.FS, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("failed to create migration locker: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys,
		goose.WithSessionLocker(locker),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Runner{provider: provider, logger: logger}, nil
}

// Up applies every pending unit in version order.
//
// The returned slice holds one Result per unit attempted during this call; it is
// empty when the database is already up to date. The first failing unit stops
// the run, is reported with StatusError, and its error is returned.
func (r *Runner) Up(ctx context.Context) ([]Result, error) {
	applied, err := r.provider.Up(ctx)

	var partial *goose.PartialError
	if err != nil && !errors.As(err, &partial) {
		r.logger.Error("migration run failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if partial != nil {
		applied = partial.Applied
	}

	results := make([]Result, 0, len(applied)+1)
	for _, mr := range applied {
		res := toResult(mr)
		r.logger.Info("migration applied",
			slog.String("migration", res.Name),
			slog.Int64("version", res.Version),
			slog.Duration("duration", res.Duration),
		)
		results = append(results, res)
	}

	if partial != nil {
		failed := toResult(partial.Failed)
		failed.Status = StatusError
		if failed.Err == nil {
			failed.Err = partial.Err
		}
		results = append(results, failed)

		r.logger.Error("migration failed",
			slog.String("migration", failed.Name),
			slog.Int64("version", failed.Version),
			slog.String("error", failed.Err.Error()),
		)
		return results, fmt.Errorf("migration %q failed: %w", failed.Name, failed.Err)
	}

	r.logger.Info("migrations complete", slog.Int("applied", len(results)))
	return results, nil
}

// Status lists every known unit with its ledger state.
func (r *Runner) Status(ctx context.Context) ([]UnitState, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	states := make([]UnitState, 0, len(statuses))
	for _, st := range statuses {
		states = append(states, UnitState{
			Version:   st.Source.Version,
			Name:      unitName(st.Source.Path),
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return states, nil
}

// Units returns the names of all known units in apply order.
func (r *Runner) Units() []string {
	sources := r.provider.ListSources()
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, unitName(src.Path))
	}
	return names
}

// Close releases the database handle owned by the Runner.
func (r *Runner) Close() error {
	return r.provider.Close()
}

func toResult(mr *goose.MigrationResult) Result {
	if mr == nil {
		return Result{Status: StatusError}
	}

	res := Result{
		Duration: mr.Duration,
		Err:      mr.Error,
		Status:   StatusSuccess,
	}
	if mr.Source != nil {
		res.Version = mr.Source.Version
		res.Name = unitName(mr.Source.Path)
	}
	if mr.Error != nil {
		res.Status = StatusError
	}
	return res
}

// unitName strips the directory and extension: "00001_users.sql" -> "00001_users".
func unitName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

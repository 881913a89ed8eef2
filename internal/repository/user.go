package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/userbase/userbase/internal/model"
)

const usersTable = "users"

// ErrEmailExists is returned when an insert hits the unique constraint on email.
var ErrEmailExists = errors.New("email already exists")

// ListUsers returns every user row. Order is unspecified.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	query, args, err := psql.Select(model.UserColumns...).From(usersTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(u.ScanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// CreateUser inserts a user with the given email and returns the stored row.
// Uniqueness is enforced by the database; a duplicate email yields ErrEmailExists
// and leaves the table unchanged.
func (r *Repository) CreateUser(ctx context.Context, email string) (*model.User, error) {
	query, args, err := psql.Insert(usersTable).
		Columns("email").
		Values(email).
		Suffix("RETURNING " + strings.Join(model.UserColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create user query: %w", err)
	}

	var user model.User
	if err := r.db.QueryRow(ctx, query, args...).Scan(user.ScanTargets()...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	listUsersSQL  = "SELECT id, email, created_at, updated_at FROM users"
	createUserSQL = "INSERT INTO users (email) VALUES ($1) RETURNING id, email, created_at, updated_at"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWithQuerier(mock), mock
}

func userRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "email", "created_at", "updated_at"})
}

func TestListUsers_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(listUsersSQL)).WillReturnRows(userRows())

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users, "empty listing must be a non-nil slice")
	assert.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers_ReturnsRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	id1, id2 := uuid.New(), uuid.New()
	rows := userRows().
		AddRow(id1, "test1@example.com", now, now).
		AddRow(id2, "test2@example.com", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(listUsersSQL)).WillReturnRows(rows)

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, id1, users[0].ID)
	assert.Equal(t, "test1@example.com", users[0].Email)
	assert.Equal(t, now, users[0].CreatedAt)
	assert.Equal(t, id2, users[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(listUsersSQL)).WillReturnError(errors.New("connection refused"))

	_, err := repo.ListUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list users")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestListUsers_RowError(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	rows := userRows().
		AddRow(uuid.New(), "test1@example.com", now, now).
		RowError(0, errors.New("stream broken"))
	mock.ExpectQuery(regexp.QuoteMeta(listUsersSQL)).WillReturnRows(rows)

	_, err := repo.ListUsers(context.Background())
	require.Error(t, err)
}

func TestCreateUser_Success(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(createUserSQL)).
		WithArgs("user+tag@example.co.uk").
		WillReturnRows(userRows().AddRow(id, "user+tag@example.co.uk", now, now))

	user, err := repo.CreateUser(context.Background(), "user+tag@example.co.uk")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "user+tag@example.co.uk", user.Email)
	assert.Equal(t, now, user.CreatedAt)
	assert.Equal(t, now, user.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(createUserSQL)).
		WithArgs("duplicate@example.com").
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "users_email_key",
			Message:        `duplicate key value violates unique constraint "users_email_key"`,
		})

	_, err := repo.CreateUser(context.Background(), "duplicate@example.com")
	require.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_OtherPgErrorIsNotConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(createUserSQL)).
		WithArgs("a@example.com").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.NotNullViolation})

	_, err := repo.CreateUser(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
	assert.Contains(t, err.Error(), "failed to create user")
}

func TestCreateUser_ConnectionError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(createUserSQL)).
		WithArgs("a@example.com").
		WillReturnError(errors.New("unique-looking text but no sqlstate"))

	_, err := repo.CreateUser(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("23505"), false},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}), true},
		{"foreign key violation", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestNewWithQuerier_CloseIsNoop(t *testing.T) {
	repo, _ := newMockRepo(t)
	assert.Nil(t, repo.Pool())
	repo.Close()
}

func TestPoolOptions_WithDefaults(t *testing.T) {
	t.Parallel()

	d := DefaultPoolOptions()

	tests := []struct {
		name string
		in   PoolOptions
		want PoolOptions
	}{
		{"zero value", PoolOptions{}, d},
		{"negative conns", PoolOptions{MaxConns: -1}, d},
		{
			"explicit values kept",
			PoolOptions{MaxConns: 3, MaxConnIdleTime: time.Minute, ConnectTimeout: time.Second},
			PoolOptions{MaxConns: 3, MaxConnIdleTime: time.Minute, ConnectTimeout: time.Second},
		},
		{
			"partial fill",
			PoolOptions{MaxConns: 25},
			PoolOptions{MaxConns: 25, MaxConnIdleTime: d.MaxConnIdleTime, ConnectTimeout: d.ConnectTimeout},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.in.withDefaults())
		})
	}
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "postgres://%zz", PoolOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")
}

// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/userbase/userbase/internal/cache"
	"github.com/userbase/userbase/internal/metrics"
	"github.com/userbase/userbase/internal/model"
	"github.com/userbase/userbase/internal/repository"
)

// ErrEmailExists is returned when another user already holds the email.
var ErrEmailExists = errors.New("email already exists")

// UserStore persists users. *repository.Repository implements it.
type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, email string) (*model.User, error)
}

// UsersCache caches the full user listing. *cache.Cache implements it.
type UsersCache interface {
	GetUsers(ctx context.Context) ([]model.User, error)
	SetUsers(ctx context.Context, users []model.User, ttl time.Duration) error
	InvalidateUsers(ctx context.Context) error
}

// Option configures a UserService.
type Option func(*UserService)

// WithCache serves listings from c for up to ttl.
func WithCache(c UsersCache, ttl time.Duration) Option {
	return func(s *UserService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// UserService handles user business logic.
type UserService struct {
	store    UserStore
	cache    UsersCache
	cacheTTL time.Duration
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, recorder metrics.Recorder, logger *slog.Logger, opts ...Option) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &UserService{
		store:   store,
		metrics: recorder,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUserInput defines input for creating a user.
type CreateUserInput struct {
	Email string `json:"email" validate:"required,email_address"`
}

// ListUsers returns every user. The result is never nil.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	if s.cache != nil {
		users, err := s.cache.GetUsers(ctx)
		if err == nil {
			s.metrics.IncUsersListCacheHit()
			return users, nil
		}
		s.metrics.IncUsersListCacheMiss()
		if !isCacheMiss(err) {
			s.logger.WarnContext(ctx, "users cache read failed", slog.String("error", err.Error()))
		}
	}

	start := time.Now()
	users, err := s.store.ListUsers(ctx)
	s.metrics.ObserveStoreDuration(metrics.OpList, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}

	if s.cache != nil {
		if err := s.cache.SetUsers(ctx, users, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "users cache write failed", slog.String("error", err.Error()))
		}
	}

	return users, nil
}

// CreateUser validates input and inserts a new user.
//
// Validation failures return *ValidationError without touching the store.
// A duplicate email returns ErrEmailExists; the check is the database's unique
// constraint, so concurrent duplicates resolve to exactly one success.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	if err := Validate(input); err != nil {
		s.metrics.IncValidationFailed()
		return nil, err
	}

	start := time.Now()
	user, err := s.store.CreateUser(ctx, input.Email)
	s.metrics.ObserveStoreDuration(metrics.OpCreate, time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			s.metrics.IncUserConflict()
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserCreated()

	if s.cache != nil {
		if err := s.cache.InvalidateUsers(ctx); err != nil {
			s.logger.WarnContext(ctx, "users cache invalidation failed", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "user_created", slog.String("user_id", user.ID.String()))
	return user, nil
}

func isCacheMiss(err error) bool {
	return errors.Is(err, cache.ErrCacheMiss)
}

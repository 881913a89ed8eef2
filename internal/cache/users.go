package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/userbase/userbase/internal/model"
)

// usersListKey holds the JSON-encoded result of the last full listing.
const usersListKey = "users:list"

// ErrCacheMiss is returned when no listing is cached.
var ErrCacheMiss = errors.New("cache miss")

// GetUsers returns the cached listing, or ErrCacheMiss.
func (c *Cache) GetUsers(ctx context.Context) ([]model.User, error) {
	data, err := c.client.Get(ctx, usersListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return decodeUsers(data)
}

// SetUsers stores a listing for ttl.
func (c *Cache) SetUsers(ctx context.Context, users []model.User, ttl time.Duration) error {
	data, err := encodeUsers(users)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, usersListKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateUsers drops the cached listing.
func (c *Cache) InvalidateUsers(ctx context.Context) error {
	if err := c.client.Del(ctx, usersListKey).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func encodeUsers(users []model.User) ([]byte, error) {
	if users == nil {
		users = []model.User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("encode users: %w", err)
	}
	return data, nil
}

func decodeUsers(data []byte) ([]model.User, error) {
	users := make([]model.User, 0)
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

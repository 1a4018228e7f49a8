package redis

import (
	"context"
	"errors"
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
)

// UserCache implements user.Cache.
type UserCache struct {
	cache *Cache
	ttl   time.Duration
}

var _ user.Cache = (*UserCache)(nil)

// NewUserCache creates a UserCache. ttl <= 0 uses TTLUserCache.
func NewUserCache(cache *Cache, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = TTLUserCache
	}
	return &UserCache{cache: cache, ttl: ttl}
}

// Get maps a miss to shared.ErrUserNotFound so the repository falls through.
func (c *UserCache) Get(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	if err := c.cache.Get(ctx, UserKey(id), &u); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (c *UserCache) Set(ctx context.Context, u *user.User) error {
	if u == nil {
		return nil
	}
	return c.cache.Set(ctx, UserKey(u.ID), u, c.ttl)
}

func (c *UserCache) Invalidate(ctx context.Context, id string) error {
	return c.cache.Delete(ctx, UserKey(id))
}

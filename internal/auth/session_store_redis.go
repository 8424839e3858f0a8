package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "streamr:session:"

// RedisSessionStore implements SessionStore on top of a Redis instance.
// Entries carry a TTL matching the refresh token expiry so stale sessions
// evict themselves.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore constructs a session store backed by the provided client.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

// Save persists the session keyed by its refresh token.
func (s *RedisSessionStore) Save(ctx context.Context, session Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	value := fmt.Sprintf("%s|%d", session.UserID, session.ExpiresAt.UTC().Unix())
	if err := s.rdb.Set(ctx, redisKeyPrefix+session.RefreshToken, value, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Find retrieves a session by refresh token.
func (s *RedisSessionStore) Find(ctx context.Context, refreshToken string) (Session, error) {
	value, err := s.rdb.Get(ctx, redisKeyPrefix+refreshToken).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("find session: %w", err)
	}

	sep := strings.LastIndexByte(value, '|')
	if sep < 0 {
		return Session{}, fmt.Errorf("decode session: malformed entry %q", value)
	}
	expiresUnix, err := strconv.ParseInt(value[sep+1:], 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("decode session expiry: %w", err)
	}

	return Session{
		RefreshToken: refreshToken,
		UserID:       value[:sep],
		ExpiresAt:    time.Unix(expiresUnix, 0).UTC(),
	}, nil
}

// Delete removes the session associated with the refresh token.
func (s *RedisSessionStore) Delete(ctx context.Context, refreshToken string) error {
	deleted, err := s.rdb.Del(ctx, redisKeyPrefix+refreshToken).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		return ErrSessionNotFound
	}
	return nil
}

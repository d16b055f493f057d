package utils

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist records revoked refresh tokens by their jti.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const blacklistPrefix = "auth:blacklist:"

type RedisBlacklist struct{ rdb *redis.Client }

func NewRedisBlacklist(rdb *redis.Client) *RedisBlacklist { return &RedisBlacklist{rdb} }

// Revoke stores the jti until the token would have expired anyway. It reports false when
// the jti was already on the list.
func (b *RedisBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return b.rdb.SetNX(ctx, blacklistPrefix+jti, 1, ttl).Result()
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := b.rdb.Get(ctx, blacklistPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

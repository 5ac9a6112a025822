package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "token:blacklist:"

// RedisTokenBlacklist stores revoked token ids until their natural expiry,
// so logout invalidates a token without keeping server-side sessions.
type RedisTokenBlacklist struct {
	rdb *redis.Client
}

func NewRedisTokenBlacklist(rdb *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{rdb: rdb}
}

// Add revokes the token id until expiresAt.
func (b *RedisTokenBlacklist) Add(jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired, nothing to revoke.
		return nil
	}
	return b.rdb.Set(context.Background(), blacklistKeyPrefix+jti, 1, ttl).Err()
}

// Contains implements middleware.TokenBlacklist. Redis being down fails open:
// token expiry still bounds the damage, and auth must not hinge on Redis uptime.
func (b *RedisTokenBlacklist) Contains(jti string) bool {
	n, err := b.rdb.Exists(context.Background(), blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false
	}
	return n > 0
}

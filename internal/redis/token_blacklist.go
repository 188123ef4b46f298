package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-buddy/internal/auth"

	"github.com/redis/go-redis/v9"
)

// redisTokenBlacklist 是 auth.TokenBlacklist 接口的 Redis 实现
type redisTokenBlacklist struct {
	client redis.Cmdable
}

// NewRedisTokenBlacklist 创建一个新的 redisTokenBlacklist 实例。
func NewRedisTokenBlacklist(client redis.Cmdable) auth.TokenBlacklist {
	return &redisTokenBlacklist{client: client}
}

const blacklistKeyPrefix = "gb:bl:jti:"

// Add 将 jti 加入黑名单，键在 Token 原本的过期时间点自动失效。
func (r *redisTokenBlacklist) Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error {
	duration := time.Until(originalTokenExpTime)
	if duration <= 0 {
		// 已过期的 Token 会被 JWT 校验拒绝，无需加入黑名单
		return nil
	}

	if err := r.client.Set(ctx, blacklistKeyPrefix+jti, "revoked", duration).Err(); err != nil {
		return fmt.Errorf("添加到 Redis 黑名单失败 for JTI %s: %w", jti, err)
	}
	return nil
}

// IsBlacklisted 检查 jti 是否在黑名单中。
func (r *redisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("从 Redis 黑名单检查失败 for JTI %s: %w", jti, err)
	}
	return n > 0, nil
}

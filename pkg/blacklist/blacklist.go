package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func tokenKey(jti string) string   { return "blacklist:token:" + jti }
func userKey(userID string) string { return "blacklist:user:" + userID }

// TokenBlacklist revokes JWTs in Redis, either one token at a time (logout)
// or every token a user holds (deactivation, password reset).
type TokenBlacklist struct {
	redis *redis.Client
	// userTTL must outlive the longest token lifetime
	userTTL time.Duration
}

func NewTokenBlacklist(redisClient *redis.Client, userTTL time.Duration) *TokenBlacklist {
	if userTTL <= 0 {
		userTTL = 7 * 24 * time.Hour
	}
	return &TokenBlacklist{redis: redisClient, userTTL: userTTL}
}

// RevokeToken blacklists a token id until its own expiry. Expired tokens are
// already rejected and are not stored.
func (b *TokenBlacklist) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.redis.Set(ctx, tokenKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

func (b *TokenBlacklist) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := b.redis.Exists(ctx, tokenKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// RevokeUser invalidates every token of userID issued up to now
func (b *TokenBlacklist) RevokeUser(ctx context.Context, userID string) error {
	if err := b.redis.Set(ctx, userKey(userID), time.Now().Unix(), b.userTTL).Err(); err != nil {
		return fmt.Errorf("failed to blacklist user: %w", err)
	}
	return nil
}

// IsUserRevoked reports whether a token issued at issuedAt predates the
// user's last revocation
func (b *TokenBlacklist) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	ts, err := b.redis.Get(ctx, userKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user blacklist: %w", err)
	}
	return issuedAt.Before(time.Unix(ts, 0)), nil
}

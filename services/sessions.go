package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "splitfree:revoked:"

// TokenBlacklist remembers the ids of tokens that were logged out until they
// would have expired anyway. It uses Redis when a client is available and a
// process-local map otherwise.
type TokenBlacklist struct {
	redis *redis.Client

	mu      sync.Mutex
	local   map[string]time.Time
	nowFunc func() time.Time
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{
		redis:   client,
		local:   make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

// Revoke blacklists tokenID until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.nowFunc())
	if ttl <= 0 {
		return nil
	}

	if b.redis != nil {
		if err := b.redis.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
			return fmt.Errorf("revoking token: %w", err)
		}
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.local[tokenID] = expiresAt
	b.sweep()
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if b.redis != nil {
		n, err := b.redis.Exists(ctx, revokedKeyPrefix+tokenID).Result()
		if err != nil {
			return false, fmt.Errorf("checking token: %w", err)
		}
		return n > 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	expiresAt, ok := b.local[tokenID]
	return ok && b.nowFunc().Before(expiresAt), nil
}

// sweep drops expired local entries. Must be called with b.mu held.
func (b *TokenBlacklist) sweep() {
	now := b.nowFunc()
	for id, expiresAt := range b.local {
		if !now.Before(expiresAt) {
			delete(b.local, id)
		}
	}
}

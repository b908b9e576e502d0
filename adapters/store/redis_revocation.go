package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kana-labs/kana-auth/ports"
)

// RedisRevocationRegistry is a Redis implementation of the
// RevocationRegistry interface.
type RedisRevocationRegistry struct {
	client *redis.Client
	prefix string
}

// NewRedisRevocationRegistry creates a new Redis revocation registry.
func NewRedisRevocationRegistry(client *redis.Client) ports.RevocationRegistry {
	return &RedisRevocationRegistry{
		client: client,
		prefix: "kana:revoked:",
	}
}

// Revoke marks a token ID as revoked in Redis until its natural expiry.
func (s *RedisRevocationRegistry) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	key := s.prefix + tokenID

	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsRevoked checks if a token ID is revoked in Redis.
func (s *RedisRevocationRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := s.prefix + tokenID

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return val > 0, nil
}

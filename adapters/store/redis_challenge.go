package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/ports"
)

// consumeScript deletes the challenge only when the presented message
// matches the stored one, making the removal the single point of truth
// under concurrent consumers.
var consumeScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return 0
end
local ch = cjson.decode(v)
if ch.message ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

type storedChallenge struct {
	WalletAddress string    `json:"wallet_address"`
	Message       string    `json:"message"`
	Nonce         string    `json:"nonce"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// RedisChallengeStore is a Redis implementation of the ChallengeStore
// interface. Challenge expiry rides on the key TTL, so an expired
// challenge is absent by the time anyone asks.
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

// NewRedisChallengeStore creates a new Redis challenge store.
func NewRedisChallengeStore(client *redis.Client) ports.ChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "kana:challenge:",
	}
}

// Put stores a challenge with a TTL matching its expiry, overwriting any
// prior challenge for the wallet.
func (s *RedisChallengeStore) Put(ctx context.Context, challenge *core.Challenge) error {
	payload, err := json.Marshal(storedChallenge{
		WalletAddress: challenge.WalletAddress,
		Message:       challenge.Message,
		Nonce:         challenge.Nonce,
		IssuedAt:      challenge.IssuedAt,
		ExpiresAt:     challenge.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	key := s.prefix + challenge.WalletAddress
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}

	return nil
}

// Get returns the stored challenge for a wallet.
func (s *RedisChallengeStore) Get(ctx context.Context, walletAddress string) (*core.Challenge, error) {
	key := s.prefix + walletAddress

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, core.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	var stored storedChallenge
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	return &core.Challenge{
		WalletAddress: stored.WalletAddress,
		Message:       stored.Message,
		Nonce:         stored.Nonce,
		IssuedAt:      stored.IssuedAt,
		ExpiresAt:     stored.ExpiresAt,
	}, nil
}

// Consume validates and atomically removes the challenge for a wallet.
func (s *RedisChallengeStore) Consume(ctx context.Context, walletAddress, message string) error {
	key := s.prefix + walletAddress

	n, err := consumeScript.Run(ctx, s.client, []string{key}, message).Int()
	if err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}
	if n == 0 {
		return core.ErrChallengeNotFound
	}

	return nil
}

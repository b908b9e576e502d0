package ports

import (
	"context"
	"time"

	"github.com/kana-labs/kana-auth/core"
)

// ChallengeStore holds the single outstanding challenge per wallet address.
// Implementations must make Put and Consume atomic per wallet without
// serializing unrelated wallets against each other.
type ChallengeStore interface {
	// Put stores a challenge, overwriting any prior challenge for the same
	// wallet address (last-writer-wins).
	Put(ctx context.Context, challenge *core.Challenge) error

	// Get returns the stored challenge for a wallet, or
	// core.ErrChallengeNotFound if absent or expired.
	Get(ctx context.Context, walletAddress string) (*core.Challenge, error)

	// Consume validates and removes the challenge for a wallet. It fails
	// with core.ErrChallengeNotFound if the challenge is absent, expired
	// (in which case it is evicted), or if message does not match the
	// stored text. The removal is atomic: of two concurrent Consume calls
	// for one wallet, at most one succeeds.
	Consume(ctx context.Context, walletAddress, message string) error
}

// RevocationRegistry tracks invalidated token IDs until their natural
// expiry. A revoked ID must never report as valid.
type RevocationRegistry interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

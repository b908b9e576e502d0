package store

import (
	"context"
	"sync"
	"time"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/ports"
)

// MemoryChallengeStore is an in-memory implementation of the ChallengeStore
// interface. Entries live in a sync.Map so wallets never serialize against
// each other; the compare-and-delete on consume is the single point of
// truth for one-time use.
type MemoryChallengeStore struct {
	challenges sync.Map // wallet address -> *core.Challenge
}

// NewMemoryChallengeStore creates a new in-memory challenge store.
func NewMemoryChallengeStore() ports.ChallengeStore {
	return &MemoryChallengeStore{}
}

// Put stores a challenge, overwriting any prior one for the same wallet.
func (s *MemoryChallengeStore) Put(ctx context.Context, challenge *core.Challenge) error {
	s.challenges.Store(challenge.WalletAddress, challenge)
	return nil
}

// Get returns the stored challenge for a wallet.
func (s *MemoryChallengeStore) Get(ctx context.Context, walletAddress string) (*core.Challenge, error) {
	v, ok := s.challenges.Load(walletAddress)
	if !ok {
		return nil, core.ErrChallengeNotFound
	}

	challenge := v.(*core.Challenge)
	if challenge.Expired(time.Now()) {
		s.challenges.CompareAndDelete(walletAddress, v)
		return nil, core.ErrChallengeNotFound
	}

	return challenge, nil
}

// Consume validates and atomically removes the challenge for a wallet.
func (s *MemoryChallengeStore) Consume(ctx context.Context, walletAddress, message string) error {
	v, ok := s.challenges.Load(walletAddress)
	if !ok {
		return core.ErrChallengeNotFound
	}

	challenge := v.(*core.Challenge)
	if challenge.Expired(time.Now()) {
		s.challenges.CompareAndDelete(walletAddress, v)
		return core.ErrChallengeNotFound
	}

	if challenge.Message != message {
		return core.ErrChallengeNotFound
	}

	// Two racing consumers both reach this point; only the one whose
	// delete succeeds wins.
	if !s.challenges.CompareAndDelete(walletAddress, v) {
		return core.ErrChallengeNotFound
	}

	return nil
}

package store

import (
	"context"
	"sync"
	"time"

	"github.com/kana-labs/kana-auth/ports"
)

// MemoryRevocationRegistry is an in-memory implementation of the
// RevocationRegistry interface.
type MemoryRevocationRegistry struct {
	revokedTokens map[string]time.Time
	mu            sync.RWMutex
}

// NewMemoryRevocationRegistry creates a new in-memory revocation registry.
func NewMemoryRevocationRegistry() ports.RevocationRegistry {
	return &MemoryRevocationRegistry{
		revokedTokens: make(map[string]time.Time),
	}
}

// Revoke marks a token ID as revoked until its natural expiry.
func (s *MemoryRevocationRegistry) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime := time.Now().Add(ttl)
	s.revokedTokens[tokenID] = expiryTime

	// Drop the entry once the token itself can no longer be valid
	go func() {
		time.Sleep(ttl)

		s.mu.Lock()
		defer s.mu.Unlock()

		// Only delete if the expiry time hasn't been extended
		if storedExpiry, exists := s.revokedTokens[tokenID]; exists && !storedExpiry.After(expiryTime) {
			delete(s.revokedTokens, tokenID)
		}
	}()

	return nil
}

// IsRevoked checks if a token ID is revoked.
func (s *MemoryRevocationRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiryTime, exists := s.revokedTokens[tokenID]
	if !exists {
		return false, nil
	}

	// The original token expired on its own; the entry is garbage
	if time.Now().After(expiryTime) {
		return false, nil
	}

	return true, nil
}

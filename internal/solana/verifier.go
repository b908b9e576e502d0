// Package solana verifies wallet signatures in the wallet's native format:
// the base58 address decodes to the ed25519 public key itself.
package solana

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/kana-labs/kana-auth/core"
)

// ValidateAddress checks that addr is a well-formed wallet address, i.e. a
// base58 string decoding to a 32-byte ed25519 public key.
func ValidateAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode wallet address: %w", core.ErrBadRequest)
	}
	if len(raw) != ed25519.PublicKeySize {
		return fmt.Errorf("wallet address is not a %d-byte key: %w", ed25519.PublicKeySize, core.ErrBadRequest)
	}
	return nil
}

// VerifySignature checks a base58-encoded ed25519 signature over message
// against the public key encoded in the wallet address. It fails closed:
// any decode error, length mismatch, or cryptographic mismatch yields
// core.ErrInvalidSignature.
func VerifySignature(walletAddress, message, signature string) error {
	pubKey, err := base58.Decode(walletAddress)
	if err != nil {
		return fmt.Errorf("decode wallet address: %w", core.ErrInvalidSignature)
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("public key must be %d bytes: %w", ed25519.PublicKeySize, core.ErrInvalidSignature)
	}

	sig, err := base58.Decode(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("signature must be %d bytes: %w", ed25519.SignatureSize, core.ErrInvalidSignature)
	}

	if !ed25519.Verify(ed25519.PublicKey(pubKey), []byte(message), sig) {
		return core.ErrInvalidSignature
	}

	return nil
}

package core

import (
	"fmt"
	"time"
)

// AuthMethod identifies how a principal proved its identity.
type AuthMethod string

const (
	// MethodWallet means the principal signed a challenge with its wallet key
	MethodWallet AuthMethod = "wallet"

	// MethodGoogle means the principal completed a Google OAuth code exchange
	MethodGoogle AuthMethod = "google"
)

// ParseAuthMethod converts a wire string into an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch AuthMethod(s) {
	case MethodWallet:
		return MethodWallet, nil
	case MethodGoogle:
		return MethodGoogle, nil
	default:
		return "", fmt.Errorf("unknown auth method %q: %w", s, ErrTokenMalformed)
	}
}

// Challenge is a one-time message a wallet must sign to prove key possession.
// At most one challenge is live per wallet address; issuing a new one
// supersedes the prior.
type Challenge struct {
	WalletAddress string    // Base58 wallet address the challenge is bound to
	Message       string    // Full text the wallet must sign
	Nonce         string    // Random nonce embedded in the message
	IssuedAt      time.Time // When the challenge was created
	ExpiresAt     time.Time // When the challenge expires
}

// Expired reports whether the challenge is past its validity window.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Claims are the verified contents of a bearer token.
type Claims struct {
	Subject   string     // Wallet address or email, depending on Method
	Method    AuthMethod // How the subject authenticated
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string // Unique identifier used for revocation lookup
}

// Principal is the identity record unifying one or more authentication
// methods for a single user. At least one of WalletAddress and Email is
// always non-empty.
type Principal struct {
	WalletAddress string                 `json:"wallet_address,omitempty"`
	Email         string                 `json:"email,omitempty"`
	LinkedMethods []AuthMethod           `json:"linked_methods"`
	CreatedAt     time.Time              `json:"created_at"`
	LastLogin     time.Time              `json:"last_login"`
	Preferences   map[string]interface{} `json:"preferences"`
}

// HasMethod reports whether the principal has authenticated with the given
// method at least once.
func (p *Principal) HasMethod(m AuthMethod) bool {
	for _, lm := range p.LinkedMethods {
		if lm == m {
			return true
		}
	}
	return false
}

// AddMethod records a method on the principal, keeping the set free of
// duplicates.
func (p *Principal) AddMethod(m AuthMethod) {
	if !p.HasMethod(m) {
		p.LinkedMethods = append(p.LinkedMethods, m)
	}
}

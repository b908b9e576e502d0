package store

import (
	"context"
	"sync"
	"time"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/ports"
)

// MemoryIdentityDirectory is an in-memory implementation of the
// IdentityDirectory interface. Wallet and email indexes point at shared
// principal records; uniqueness of both keys is enforced under one lock.
type MemoryIdentityDirectory struct {
	byWallet map[string]*core.Principal
	byEmail  map[string]*core.Principal
	mu       sync.Mutex
}

// NewMemoryIdentityDirectory creates a new in-memory identity directory.
func NewMemoryIdentityDirectory() ports.IdentityDirectory {
	return &MemoryIdentityDirectory{
		byWallet: make(map[string]*core.Principal),
		byEmail:  make(map[string]*core.Principal),
	}
}

// FindByWallet returns the principal owning a wallet address.
func (d *MemoryIdentityDirectory) FindByWallet(ctx context.Context, walletAddress string) (*core.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byWallet[walletAddress]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

// FindByEmail returns the principal owning an email.
func (d *MemoryIdentityDirectory) FindByEmail(ctx context.Context, email string) (*core.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byEmail[email]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

// UpsertWalletPrincipal creates a principal for the wallet if absent, or
// bumps its last-login timestamp if present.
func (d *MemoryIdentityDirectory) UpsertWalletPrincipal(ctx context.Context, walletAddress string) (*core.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	p, ok := d.byWallet[walletAddress]
	if !ok {
		p = &core.Principal{
			WalletAddress: walletAddress,
			CreatedAt:     now,
			Preferences:   make(map[string]interface{}),
		}
		d.byWallet[walletAddress] = p
	}
	p.LastLogin = now
	p.AddMethod(core.MethodWallet)

	return clonePrincipal(p), nil
}

// UpsertOAuthPrincipal creates a principal for the email if absent, or
// bumps its last-login timestamp if present.
func (d *MemoryIdentityDirectory) UpsertOAuthPrincipal(ctx context.Context, email string) (*core.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	p, ok := d.byEmail[email]
	if !ok {
		p = &core.Principal{
			Email:       email,
			CreatedAt:   now,
			Preferences: make(map[string]interface{}),
		}
		d.byEmail[email] = p
	}
	p.LastLogin = now
	p.AddMethod(core.MethodGoogle)

	return clonePrincipal(p), nil
}

// LinkWallet attaches a wallet to the principal owning email.
func (d *MemoryIdentityDirectory) LinkWallet(ctx context.Context, email, walletAddress string) (*core.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byEmail[email]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}

	if owner, taken := d.byWallet[walletAddress]; taken {
		if owner != p {
			return nil, core.ErrConflict
		}
		// Already linked to this principal; nothing to do
		return clonePrincipal(p), nil
	}

	// The principal cannot carry two distinct wallets
	if p.WalletAddress != "" && p.WalletAddress != walletAddress {
		return nil, core.ErrConflict
	}

	p.WalletAddress = walletAddress
	p.AddMethod(core.MethodWallet)
	d.byWallet[walletAddress] = p

	return clonePrincipal(p), nil
}

func clonePrincipal(p *core.Principal) *core.Principal {
	out := *p
	out.LinkedMethods = append([]core.AuthMethod(nil), p.LinkedMethods...)
	out.Preferences = make(map[string]interface{}, len(p.Preferences))
	for k, v := range p.Preferences {
		out.Preferences[k] = v
	}
	return &out
}

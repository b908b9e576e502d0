package ports

import (
	"context"

	"github.com/kana-labs/kana-auth/core"
)

// IdentityDirectory is the durable record per principal. Wallet addresses
// and emails are each unique across principals; implementations enforce
// this at write time.
type IdentityDirectory interface {
	FindByWallet(ctx context.Context, walletAddress string) (*core.Principal, error)
	FindByEmail(ctx context.Context, email string) (*core.Principal, error)

	// UpsertWalletPrincipal creates a principal for the wallet if absent,
	// or updates its last-login timestamp if present.
	UpsertWalletPrincipal(ctx context.Context, walletAddress string) (*core.Principal, error)

	// UpsertOAuthPrincipal creates a principal for the email if absent,
	// or updates its last-login timestamp if present.
	UpsertOAuthPrincipal(ctx context.Context, email string) (*core.Principal, error)

	// LinkWallet attaches a wallet to the principal owning email. It fails
	// with core.ErrConflict if the wallet is already bound to a different
	// principal, and is idempotent when re-linking the same one.
	LinkWallet(ctx context.Context, email, walletAddress string) (*core.Principal, error)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kana-labs/kana-auth/core"
)

func TestUpsertWalletPrincipal(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryIdentityDirectory()

	p, err := d.UpsertWalletPrincipal(ctx, "W1")
	require.NoError(t, err)
	require.Equal(t, "W1", p.WalletAddress)
	require.True(t, p.HasMethod(core.MethodWallet))
	require.False(t, p.CreatedAt.IsZero())

	firstLogin := p.LastLogin

	p2, err := d.UpsertWalletPrincipal(ctx, "W1")
	require.NoError(t, err)
	require.Equal(t, p.CreatedAt, p2.CreatedAt)
	require.False(t, p2.LastLogin.Before(firstLogin))
}

func TestUpsertOAuthPrincipal(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryIdentityDirectory()

	p, err := d.UpsertOAuthPrincipal(ctx, "u@x.com")
	require.NoError(t, err)
	require.Equal(t, "u@x.com", p.Email)
	require.True(t, p.HasMethod(core.MethodGoogle))

	found, err := d.FindByEmail(ctx, "u@x.com")
	require.NoError(t, err)
	require.Equal(t, "u@x.com", found.Email)
}

func TestFindAbsent(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryIdentityDirectory()

	_, err := d.FindByWallet(ctx, "W1")
	require.ErrorIs(t, err, core.ErrPrincipalNotFound)

	_, err = d.FindByEmail(ctx, "u@x.com")
	require.ErrorIs(t, err, core.ErrPrincipalNotFound)
}

func TestLinkWallet(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryIdentityDirectory()

	_, err := d.UpsertOAuthPrincipal(ctx, "u@x.com")
	require.NoError(t, err)

	p, err := d.LinkWallet(ctx, "u@x.com", "AAA")
	require.NoError(t, err)
	require.Equal(t, "AAA", p.WalletAddress)
	require.True(t, p.HasMethod(core.MethodWallet))
	require.True(t, p.HasMethod(core.MethodGoogle))

	// The wallet now resolves to the same principal
	found, err := d.FindByWallet(ctx, "AAA")
	require.NoError(t, err)
	require.Equal(t, "u@x.com", found.Email)
}

func TestLinkWalletIdempotent(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryIdentityDirectory()

	_, err := d.UpsertOAuthPrincipal(ctx, "u@x.com")
	require.NoError(t, err)

	_, err = d.LinkWallet(ctx, "u@x.com", "AAA")
	require.NoError(t, err)

	p, err := d.LinkWallet(ctx, "u@x.com", "AAA")
	require.NoError(t, err)
	require.Equal(t, "AAA", p.WalletAddress)
}

func TestLinkWalletConflict(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryIdentityDirectory()

	_, err := d.UpsertOAuthPrincipal(ctx, "u@x.com")
	require.NoError(t, err)
	_, err = d.UpsertOAuthPrincipal(ctx, "other@x.com")
	require.NoError(t, err)

	_, err = d.LinkWallet(ctx, "u@x.com", "AAA")
	require.NoError(t, err)

	// A second principal cannot claim the same wallet
	_, err = d.LinkWallet(ctx, "other@x.com", "AAA")
	require.ErrorIs(t, err, core.ErrConflict)
}

func TestLinkWalletUnknownEmail(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryIdentityDirectory()

	_, err := d.LinkWallet(ctx, "ghost@x.com", "AAA")
	require.ErrorIs(t, err, core.ErrPrincipalNotFound)
}

func TestLinkWalletTakenByWalletPrincipal(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryIdentityDirectory()

	// A standalone wallet principal already owns the address
	_, err := d.UpsertWalletPrincipal(ctx, "AAA")
	require.NoError(t, err)

	_, err = d.UpsertOAuthPrincipal(ctx, "u@x.com")
	require.NoError(t, err)

	_, err = d.LinkWallet(ctx, "u@x.com", "AAA")
	require.ErrorIs(t, err, core.ErrConflict)
}

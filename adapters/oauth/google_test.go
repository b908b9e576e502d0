package oauth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kana-labs/kana-auth/core"
)

func TestUnconfigured(t *testing.T) {
	g := NewGoogleExchanger(GoogleConfig{})

	require.False(t, g.Configured())

	_, err := g.AuthURL("state")
	require.ErrorIs(t, err, core.ErrNotConfigured)

	_, err = g.Exchange(context.Background(), "code", "")
	require.ErrorIs(t, err, core.ErrNotConfigured)
}

func TestAuthURL(t *testing.T) {
	g := NewGoogleExchanger(GoogleConfig{
		ClientID:    "client-id",
		RedirectURI: "http://localhost:8000/auth/google/callback",
	})

	raw, err := g.AuthURL("xyz")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	require.Equal(t, "client-id", q.Get("client_id"))
	require.Equal(t, "http://localhost:8000/auth/google/callback", q.Get("redirect_uri"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "xyz", q.Get("state"))
	require.Contains(t, q.Get("scope"), "email")
}

package ports

import "context"

// OAuthIdentity is the normalized profile returned by the OAuth provider
// after a successful code exchange.
type OAuthIdentity struct {
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// OAuthExchanger is the token-exchange contract with the external OAuth
// provider. Retries and provider internals live behind this boundary.
type OAuthExchanger interface {
	// Configured reports whether provider credentials are present.
	Configured() bool

	// AuthURL builds the provider authorization URL for the given state.
	AuthURL(state string) (string, error)

	// Exchange trades an authorization code for the provider-verified
	// identity of the user.
	Exchange(ctx context.Context, code, redirectURI string) (*OAuthIdentity, error)
}

package ports

import "github.com/kana-labs/kana-auth/core"

// Tokenizer mints and decodes signed bearer tokens carrying identity claims.
type Tokenizer interface {
	// Mint produces a signed credential for the subject and method. The
	// returned claims carry the generated token ID and expiry.
	Mint(subject string, method core.AuthMethod) (string, *core.Claims, error)

	// Decode verifies the credential's integrity and expiry. It fails with
	// core.ErrTokenExpired, core.ErrTokenMalformed, or
	// core.ErrInvalidSignature.
	Decode(credential string) (*core.Claims, error)

	// DecodeExpired is like Decode but tolerates an elapsed expiry, so a
	// logout can still revoke an expired-but-intact credential.
	DecodeExpired(credential string) (*core.Claims, error)
}

package core

import "errors"

var (
	// ErrUnauthorized covers every authentication failure surfaced to a
	// caller: bad signature, missing or expired challenge, invalid token.
	// Details are kept out of the message on purpose.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict is returned when linking a wallet already bound to a
	// different principal.
	ErrConflict = errors.New("wallet already linked to another account")

	// ErrBadRequest is returned on malformed input or an operation invoked
	// with the wrong authentication method.
	ErrBadRequest = errors.New("bad request")

	// ErrNotConfigured is returned when an OAuth flow is requested without
	// provider credentials present.
	ErrNotConfigured = errors.New("oauth provider not configured")

	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrChallengeNotFound is returned when a challenge is absent, expired,
	// or does not match the presented message.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrPrincipalNotFound is returned when no identity record exists for
	// the given wallet address or email.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrInternal wraps unexpected collaborator failures so raw store or
	// provider errors never reach the caller.
	ErrInternal = errors.New("internal error")
)

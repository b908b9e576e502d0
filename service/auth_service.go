package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/internal/solana"
	"github.com/kana-labs/kana-auth/ports"
)

const (
	// ChallengeTTL is the fixed validity window of a login challenge.
	ChallengeTTL = 5 * time.Minute

	// minRevocationTTL keeps a revocation record alive for expired tokens,
	// guarding against slightly skewed clocks.
	minRevocationTTL = time.Hour
)

// AuthService handles the authentication protocol: challenge issuance,
// signature verification, token lifecycle, the OAuth path, and identity
// linking.
//
// Refresh deliberately leaves the presented token valid until its natural
// expiry, so a refreshed and an original token can overlap. Single-active-
// token semantics would require revoking on refresh; that trade-off is
// preserved from the original protocol rather than changed here.
type AuthService struct {
	challenges  ports.ChallengeStore
	revocations ports.RevocationRegistry
	directory   ports.IdentityDirectory
	tokenizer   ports.Tokenizer
	oauth       ports.OAuthExchanger
	eventPub    ports.EventPublisher
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	challenges ports.ChallengeStore,
	revocations ports.RevocationRegistry,
	directory ports.IdentityDirectory,
	tokenizer ports.Tokenizer,
	oauth ports.OAuthExchanger,
	eventPub ports.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		challenges:  challenges,
		revocations: revocations,
		directory:   directory,
		tokenizer:   tokenizer,
		oauth:       oauth,
		eventPub:    eventPub,
		logger:      logger,
	}
}

// CreateChallenge generates a new authentication challenge for a wallet,
// superseding any prior one.
func (s *AuthService) CreateChallenge(ctx context.Context, walletAddress string) (*core.Challenge, error) {
	if err := solana.ValidateAddress(walletAddress); err != nil {
		return nil, err
	}

	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", core.ErrInternal)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := time.Now()
	challenge := &core.Challenge{
		WalletAddress: walletAddress,
		Nonce:         nonce,
		IssuedAt:      now,
		ExpiresAt:     now.Add(ChallengeTTL),
		Message: fmt.Sprintf(
			"Sign this message to authenticate\n\nWallet: %s\nNonce: %s\nTimestamp: %s",
			walletAddress, nonce, now.UTC().Format(time.RFC3339),
		),
	}

	if err := s.challenges.Put(ctx, challenge); err != nil {
		return nil, s.internal("store challenge", err)
	}

	return challenge, nil
}

// VerifyWallet checks the signature over a previously issued challenge and,
// on success, consumes the challenge, records the login, and mints a token.
// Every failure surfaces as ErrUnauthorized; the caller learns nothing about
// which step failed.
func (s *AuthService) VerifyWallet(ctx context.Context, walletAddress, signature, message string) (string, *core.Claims, error) {
	if err := solana.VerifySignature(walletAddress, message, signature); err != nil {
		s.logger.Debug("signature verification failed", zap.String("wallet", walletAddress))
		return "", nil, core.ErrUnauthorized
	}

	// The challenge's removal is the single point of truth: of two racing
	// verifications only the one whose consume succeeds gets a token.
	if err := s.challenges.Consume(ctx, walletAddress, message); err != nil {
		if errors.Is(err, core.ErrChallengeNotFound) {
			return "", nil, core.ErrUnauthorized
		}
		return "", nil, s.internal("consume challenge", err)
	}

	if _, err := s.directory.UpsertWalletPrincipal(ctx, walletAddress); err != nil {
		return "", nil, s.internal("upsert wallet principal", err)
	}

	token, claims, err := s.tokenizer.Mint(walletAddress, core.MethodWallet)
	if err != nil {
		return "", nil, s.internal("mint token", err)
	}

	s.logger.Info("wallet authenticated", zap.String("wallet", walletAddress))
	return token, claims, nil
}

// Authenticate decodes a bearer credential and checks it against the
// revocation registry. It gates every protected operation.
func (s *AuthService) Authenticate(ctx context.Context, credential string) (*core.Claims, error) {
	claims, err := s.tokenizer.Decode(credential)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, s.internal("check revocation", err)
	}
	if revoked {
		return nil, core.ErrTokenRevoked
	}

	return claims, nil
}

// Refresh mints a replacement token with a fresh expiry window. The
// presented token must still be valid and unrevoked; it stays valid until
// its own expiry.
func (s *AuthService) Refresh(ctx context.Context, credential string) (string, *core.Claims, error) {
	claims, err := s.Authenticate(ctx, credential)
	if err != nil {
		return "", nil, err
	}

	token, newClaims, err := s.tokenizer.Mint(claims.Subject, claims.Method)
	if err != nil {
		return "", nil, s.internal("mint token", err)
	}

	return token, newClaims, nil
}

// Logout revokes the presented token until its natural expiry. An expired
// but otherwise intact credential is still accepted, so the revocation
// record outlives any clock skew. Idempotent.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	claims, err := s.tokenizer.DecodeExpired(credential)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt)
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}

	if err := s.revocations.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return s.internal("revoke token", err)
	}

	// The token is already dead in the registry; a failed notification
	// must not fail the logout.
	if err := s.eventPub.PublishLogout(ctx, claims.Subject, claims.TokenID); err != nil {
		s.logger.Warn("failed to publish logout event", zap.Error(err))
	}

	return nil
}

// GoogleAuthURL returns the provider authorization URL.
func (s *AuthService) GoogleAuthURL() (string, error) {
	if !s.oauth.Configured() {
		return "", core.ErrNotConfigured
	}
	return s.oauth.AuthURL("")
}

// GoogleCallback exchanges an authorization code for a verified email and
// mints a token for the OAuth principal.
func (s *AuthService) GoogleCallback(ctx context.Context, code, redirectURI string) (string, *core.Claims, *core.Principal, error) {
	if !s.oauth.Configured() {
		return "", nil, nil, core.ErrNotConfigured
	}

	identity, err := s.oauth.Exchange(ctx, code, redirectURI)
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) || errors.Is(err, core.ErrNotConfigured) {
			return "", nil, nil, err
		}
		return "", nil, nil, s.internal("oauth exchange", err)
	}
	if !identity.EmailVerified {
		s.logger.Debug("rejected unverified email", zap.String("email", identity.Email))
		return "", nil, nil, core.ErrUnauthorized
	}

	principal, err := s.directory.UpsertOAuthPrincipal(ctx, identity.Email)
	if err != nil {
		return "", nil, nil, s.internal("upsert oauth principal", err)
	}

	token, claims, err := s.tokenizer.Mint(identity.Email, core.MethodGoogle)
	if err != nil {
		return "", nil, nil, s.internal("mint token", err)
	}

	s.logger.Info("google account authenticated", zap.String("email", identity.Email))
	return token, claims, principal, nil
}

// LinkWallet attaches a wallet to the caller's principal. The caller must
// have authenticated via Google; wallet-authenticated tokens cannot extend
// themselves with further wallets.
func (s *AuthService) LinkWallet(ctx context.Context, claims *core.Claims, walletAddress string) (*core.Principal, error) {
	switch claims.Method {
	case core.MethodGoogle:
		// The only method allowed to link a wallet
	case core.MethodWallet:
		return nil, fmt.Errorf("wallet linking requires google authentication: %w", core.ErrBadRequest)
	default:
		return nil, core.ErrBadRequest
	}

	if err := solana.ValidateAddress(walletAddress); err != nil {
		return nil, err
	}

	principal, err := s.directory.LinkWallet(ctx, claims.Subject, walletAddress)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrConflict):
			return nil, err
		case errors.Is(err, core.ErrPrincipalNotFound):
			return nil, core.ErrUnauthorized
		default:
			return nil, s.internal("link wallet", err)
		}
	}

	s.logger.Info("wallet linked",
		zap.String("email", claims.Subject),
		zap.String("wallet", walletAddress))
	return principal, nil
}

// Profile returns the principal record for the authenticated caller.
func (s *AuthService) Profile(ctx context.Context, claims *core.Claims) (*core.Principal, error) {
	var (
		principal *core.Principal
		err       error
	)
	switch claims.Method {
	case core.MethodWallet:
		principal, err = s.directory.FindByWallet(ctx, claims.Subject)
	case core.MethodGoogle:
		principal, err = s.directory.FindByEmail(ctx, claims.Subject)
	default:
		return nil, core.ErrBadRequest
	}

	if err != nil {
		if errors.Is(err, core.ErrPrincipalNotFound) {
			return nil, err
		}
		return nil, s.internal("load principal", err)
	}
	return principal, nil
}

func (s *AuthService) internal(op string, err error) error {
	s.logger.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%s: %w", op, core.ErrInternal)
}

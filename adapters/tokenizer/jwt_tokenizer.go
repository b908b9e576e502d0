package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/ports"
)

const AudienceAccess = "kana:access"

// DefaultTokenLifetime is the access token lifetime when none is configured.
const DefaultTokenLifetime = 24 * time.Hour

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs signed
// with a shared secret.
type JWTTokenizer struct {
	secret   []byte
	lifetime time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer. A non-positive lifetime
// falls back to DefaultTokenLifetime.
func NewJWTTokenizer(secret []byte, lifetime time.Duration) ports.Tokenizer {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &JWTTokenizer{secret: secret, lifetime: lifetime}
}

// Mint produces a signed credential for the subject and method.
func (j *JWTTokenizer) Mint(subject string, method core.AuthMethod) (string, *core.Claims, error) {
	now := time.Now()
	claims := &core.Claims{
		Subject:   subject,
		Method:    method,
		IssuedAt:  now,
		ExpiresAt: now.Add(j.lifetime),
		TokenID:   uuid.New().String(),
	}

	jwtClaims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			ID:        claims.TokenID,
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
		Method: string(claims.Method),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, claims, nil
}

// Decode verifies the credential's signature and expiry.
func (j *JWTTokenizer) Decode(credential string) (*core.Claims, error) {
	return j.decode(credential, false)
}

// DecodeExpired verifies the credential's signature but tolerates an
// elapsed expiry.
func (j *JWTTokenizer) DecodeExpired(credential string) (*core.Claims, error) {
	return j.decode(credential, true)
}

func (j *JWTTokenizer) decode(credential string, allowExpired bool) (*core.Claims, error) {
	opts := []jwt.ParserOption{jwt.WithAudience(AudienceAccess)}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(credential, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, opts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, core.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, core.ErrInvalidSignature
		default:
			return nil, fmt.Errorf("failed to parse token: %w", core.ErrTokenMalformed)
		}
	}

	if !token.Valid && !allowExpired {
		return nil, core.ErrTokenMalformed
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, core.ErrTokenMalformed
	}

	method, err := core.ParseAuthMethod(claims.Method)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, core.ErrTokenMalformed
	}

	out := &core.Claims{
		Subject: claims.Subject,
		Method:  method,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	// WithoutClaimsValidation skips audience and expiry checks entirely,
	// so an expired credential parsed for logout is vetted by hand.
	if allowExpired {
		if !containsAudience(claims.Audience, AudienceAccess) {
			return nil, core.ErrTokenMalformed
		}
		return out, nil
	}
	if time.Now().After(out.ExpiresAt) {
		return nil, core.ErrTokenExpired
	}

	return out, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

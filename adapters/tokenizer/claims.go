package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the authentication method used
// to obtain the token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Method string `json:"method"`
}

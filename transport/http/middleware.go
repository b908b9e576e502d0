package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/service"
)

const claimsContextKey = "authClaims"

// AuthMiddleware creates middleware that validates bearer tokens and checks
// them against the revocation registry before any protected handler runs.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header",
				"code":  "unauthorized",
			})
			return
		}

		claims, err := authService.Authenticate(c.Request.Context(), credential)
		if err != nil {
			writeError(c, err, "invalid or expired token")
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if len(auth) < 8 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", false
	}
	return auth[7:], true
}

// claimsFromContext returns the claims stashed by AuthMiddleware.
func claimsFromContext(c *gin.Context) *core.Claims {
	v, exists := c.Get(claimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*core.Claims)
	if !ok {
		return nil
	}
	return claims
}

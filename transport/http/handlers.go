package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints.
type AuthHandlers struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

// Challenge handles POST /auth/challenge?wallet_address=
func (h *AuthHandlers) Challenge(c *gin.Context) {
	walletAddress := c.Query("wallet_address")
	if walletAddress == "" {
		writeError(c, core.ErrBadRequest, "wallet_address is required")
		return
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), walletAddress)
	if err != nil {
		writeError(c, err, "failed to create challenge")
		return
	}

	h.logger.Debug("challenge issued", zap.String("wallet", challenge.WalletAddress))
	c.JSON(http.StatusOK, gin.H{
		"challenge":      challenge.Message,
		"expires_at":     challenge.ExpiresAt,
		"wallet_address": challenge.WalletAddress,
	})
}

// Verify handles POST /auth/verify
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Message       string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, core.ErrBadRequest, "invalid request body")
		return
	}

	token, claims, err := h.authService.VerifyWallet(c.Request.Context(), req.WalletAddress, req.Signature, req.Message)
	if err != nil {
		writeError(c, err, "authentication failed")
		return
	}

	c.JSON(http.StatusOK, tokenPayload(token, claims))
}

// Refresh handles POST /auth/refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	credential, ok := bearerToken(c)
	if !ok {
		writeError(c, core.ErrUnauthorized, "missing bearer token")
		return
	}

	token, claims, err := h.authService.Refresh(c.Request.Context(), credential)
	if err != nil {
		writeError(c, err, "failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, tokenPayload(token, claims))
}

// Profile handles GET /auth/profile
func (h *AuthHandlers) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		writeError(c, core.ErrInternal, "claims not found in context")
		return
	}

	principal, err := h.authService.Profile(c.Request.Context(), claims)
	if err != nil {
		writeError(c, err, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address": principal.WalletAddress,
		"email":          principal.Email,
		"auth_method":    claims.Method,
		"linked_methods": principal.LinkedMethods,
		"created_at":     principal.CreatedAt,
		"last_login":     principal.LastLogin,
		"preferences":    principal.Preferences,
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	credential, ok := bearerToken(c)
	if !ok {
		writeError(c, core.ErrUnauthorized, "missing bearer token")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), credential); err != nil {
		writeError(c, err, "failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// GoogleLogin handles GET /auth/google/login
func (h *AuthHandlers) GoogleLogin(c *gin.Context) {
	authURL, err := h.authService.GoogleAuthURL()
	if err != nil {
		writeError(c, err, "google login unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// GoogleCallback handles POST /auth/google/callback
func (h *AuthHandlers) GoogleCallback(c *gin.Context) {
	var req struct {
		Code        string `json:"code" binding:"required"`
		RedirectURI string `json:"redirect_uri"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, core.ErrBadRequest, "invalid request body")
		return
	}

	token, claims, principal, err := h.authService.GoogleCallback(c.Request.Context(), req.Code, req.RedirectURI)
	if err != nil {
		writeError(c, err, "authentication failed")
		return
	}

	payload := tokenPayload(token, claims)
	payload["email"] = principal.Email
	c.JSON(http.StatusOK, payload)
}

// LinkWallet handles POST /auth/link-wallet?wallet_address=
func (h *AuthHandlers) LinkWallet(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		writeError(c, core.ErrInternal, "claims not found in context")
		return
	}

	walletAddress := c.Query("wallet_address")
	if walletAddress == "" {
		writeError(c, core.ErrBadRequest, "wallet_address is required")
		return
	}

	principal, err := h.authService.LinkWallet(c.Request.Context(), claims, walletAddress)
	if err != nil {
		writeError(c, err, "failed to link wallet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Wallet linked successfully",
		"email":          principal.Email,
		"wallet_address": principal.WalletAddress,
	})
}

// Health handles GET /health
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "operational"})
}

func tokenPayload(token string, claims *core.Claims) gin.H {
	payload := gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int64(claims.ExpiresAt.Sub(claims.IssuedAt) / time.Second),
		"auth_method":  claims.Method,
	}
	switch claims.Method {
	case core.MethodWallet:
		payload["wallet_address"] = claims.Subject
	case core.MethodGoogle:
		payload["email"] = claims.Subject
	}
	return payload
}

// writeError maps the error taxonomy onto HTTP status codes with a stable
// machine-readable code. Authentication failures all collapse to 401; the
// caller never learns which step broke.
func writeError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, core.ErrUnauthorized),
		errors.Is(err, core.ErrTokenExpired),
		errors.Is(err, core.ErrTokenMalformed),
		errors.Is(err, core.ErrTokenRevoked),
		errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrChallengeNotFound):
		status = http.StatusUnauthorized
		code = "unauthorized"
	case errors.Is(err, core.ErrBadRequest):
		status = http.StatusBadRequest
		code = "bad_request"
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
		code = "conflict"
	case errors.Is(err, core.ErrPrincipalNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, core.ErrNotConfigured):
		status = http.StatusNotImplemented
		code = "not_configured"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

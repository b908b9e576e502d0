package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kana-labs/kana-auth/service"
)

// SetupRouter sets up the Gin router with all auth routes.
func SetupRouter(authService *service.AuthService, logger *zap.Logger) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService, logger)

	router.GET("/health", handlers.Health)

	auth := router.Group("/auth")
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/verify", handlers.Verify)
		auth.POST("/refresh", handlers.Refresh)
		// Logout validates its own credential so an expired-but-intact
		// token can still be revoked.
		auth.POST("/logout", handlers.Logout)
		auth.GET("/google/login", handlers.GoogleLogin)
		auth.POST("/google/callback", handlers.GoogleCallback)
	}

	protected := router.Group("/auth")
	protected.Use(AuthMiddleware(authService))
	{
		protected.GET("/profile", handlers.Profile)
		protected.POST("/link-wallet", handlers.LinkWallet)
	}

	return router
}

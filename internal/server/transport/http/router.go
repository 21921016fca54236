package http

import (
	"github.com/gin-gonic/gin"

	"github.com/amaravathi/tradeidentity/internal/server/auth"
	"github.com/amaravathi/tradeidentity/internal/server/models"
	"github.com/amaravathi/tradeidentity/internal/server/services"
)

// BasePath is the prefix every endpoint is served under.
const BasePath = "/api/trade-identity/v1"

// NewRouter assembles the gin engine with all routes and middleware.
func NewRouter(authSvc *services.AuthService, verification *services.VerificationService,
	admin *services.UserAdminService, tokens *auth.TokenService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	authHandlers := NewAuthHandlers(authSvc)
	verifyHandlers := NewVerificationHandlers(verification)
	adminHandlers := NewAdminHandlers(admin)

	v1 := router.Group(BasePath)

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/sign-up", authHandlers.SignUp)
		authGroup.POST("/sign-in", authHandlers.SignIn)
		authGroup.POST("/refresh", authHandlers.Refresh)
		authGroup.POST("/logout", authHandlers.Logout)
		authGroup.GET("/me", AuthMiddleware(tokens), authHandlers.Me)
	}

	verifyGroup := v1.Group("/verify/email")
	{
		verifyGroup.POST("/send-magic-link", verifyHandlers.SendMagicLink)
		verifyGroup.GET("/confirm", verifyHandlers.Confirm)
	}

	adminGroup := v1.Group("/admin")
	adminGroup.Use(AuthMiddleware(tokens), RequireRole(models.AdminRoleCode))
	{
		adminGroup.GET("/users", adminHandlers.ListUsers)
		adminGroup.PUT("/users/:id/status", adminHandlers.ChangeStatus)
		adminGroup.PUT("/users/:id/roles", adminHandlers.SetRoles)
		adminGroup.GET("/roles", adminHandlers.ListRoles)
	}

	return router
}

package routes

import (
	"greenride/internal/handlers"
	"greenride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up registration, login and user profile routes
func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, validator middleware.TokenValidator) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	users := r.Group("/users")
	users.Use(middleware.AuthRequired(validator))
	{
		users.GET("/me", authHandler.Me)
		users.GET("/:id", authHandler.GetUser)
		users.POST("/:id/rate", authHandler.RateUser)
	}

	admin := r.Group("/admin/users")
	admin.Use(middleware.AuthRequired(validator), middleware.AdminRequired())
	{
		admin.POST("/:id/green-points", authHandler.AddGreenPoints)
	}
}

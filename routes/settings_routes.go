package routes

import (
	"greenride/internal/handlers"
	"greenride/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSettingsRoutes(r *gin.RouterGroup, settingsHandler *handlers.SettingsHandler, validator middleware.TokenValidator) {
	settings := r.Group("/settings")
	settings.Use(middleware.AuthRequired(validator))
	{
		settings.GET("", settingsHandler.GetSettings)
		settings.PUT("", settingsHandler.UpdateSettings)
		settings.GET("/green-stats", settingsHandler.GetGreenStats)
		settings.PUT("/green-goals", settingsHandler.UpdateGreenGoals)
		settings.POST("/achievements", settingsHandler.AddAchievement)
		settings.POST("/reset", settingsHandler.ResetSettings)
	}
}

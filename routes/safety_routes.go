package routes

import (
	"greenride/internal/handlers"
	"greenride/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSafetyRoutes(r *gin.RouterGroup, safetyHandler *handlers.SafetyHandler, validator middleware.TokenValidator) {
	safety := r.Group("/safety")
	safety.Use(middleware.AuthRequired(validator))
	{
		safety.GET("/settings", safetyHandler.GetSettings)
		safety.PUT("/settings", safetyHandler.UpdateSettings)

		// Emergency contacts
		safety.POST("/emergency-contacts", safetyHandler.AddEmergencyContact)
		safety.DELETE("/emergency-contacts/:id", safetyHandler.RemoveEmergencyContact)

		safety.POST("/incident-reports", safetyHandler.ReportIncident)
		safety.GET("/incident-reports", safetyHandler.ListIncidents)

		safety.PUT("/score", safetyHandler.UpdateSafetyScore)
		safety.GET("/stats", safetyHandler.GetStats)
	}
}

package routes

import (
	"greenride/internal/handlers"
	"greenride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRideRoutes sets up the ride lifecycle routes
func SetupRideRoutes(r *gin.RouterGroup, rideHandler *handlers.RideHandler, validator middleware.TokenValidator) {
	rides := r.Group("/rides")
	rides.Use(middleware.AuthRequired(validator))
	{
		rides.POST("", rideHandler.CreateRide)
		rides.GET("/search", rideHandler.SearchRides)
		rides.POST("/match", rideHandler.FindMatches)
		rides.GET("/history", rideHandler.GetRideHistory)
		rides.POST("/complete", rideHandler.CompleteRide)
		rides.GET("/:id", rideHandler.GetRide)
		rides.POST("/:id/join", rideHandler.JoinRide)
	}

	admin := r.Group("/admin/rides")
	admin.Use(middleware.AuthRequired(validator), middleware.AdminRequired())
	{
		admin.POST("/resume-completions", rideHandler.ResumeCompletions)
	}
}

package handlers

import (
	"time"

	"greenride/internal/services"
	"greenride/internal/utils"
	"greenride/internal/validators"

	"github.com/gin-gonic/gin"
)

type RideHandler struct {
	rideService       services.RideService
	settlementService services.SettlementService
	// resumeAfter is how long a completion must be stuck before an admin
	// sweep picks it up.
	resumeAfter time.Duration
}

func NewRideHandler(rideService services.RideService, settlementService services.SettlementService, resumeAfter time.Duration) *RideHandler {
	return &RideHandler{
		rideService:       rideService,
		settlementService: settlementService,
		resumeAfter:       resumeAfter,
	}
}

func (h *RideHandler) CreateRide(c *gin.Context) {
	driverID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.CreateRideRequest
	if !bindJSON(c, &request) {
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), driverID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Ride created successfully", ride)
}

func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, ok := pathObjectID(c, "id", "ride")
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved successfully", ride)
}

func (h *RideHandler) SearchRides(c *gin.Context) {
	var request validators.SearchRidesRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}

	rides, err := h.rideService.SearchRides(c.Request.Context(), &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Rides retrieved successfully", rides, &utils.Meta{Count: len(rides)})
}

func (h *RideHandler) FindMatches(c *gin.Context) {
	var request validators.FindMatchesRequest
	if !bindJSON(c, &request) {
		return
	}

	rides, err := h.rideService.FindMatches(c.Request.Context(), &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Matching rides retrieved successfully", rides, &utils.Meta{Count: len(rides)})
}

func (h *RideHandler) JoinRide(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id", "ride")
	if !ok {
		return
	}

	ride, err := h.rideService.JoinRide(c.Request.Context(), rideID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Joined ride successfully", ride)
}

func (h *RideHandler) CompleteRide(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.CompleteRideRequest
	if !bindJSON(c, &request) {
		return
	}

	completed, err := h.settlementService.CompleteRide(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride completed successfully", completed)
}

func (h *RideHandler) GetRideHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := h.rideService.GetRideHistory(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Ride history retrieved successfully", history, &utils.Meta{Count: len(history)})
}

// ResumeCompletions finishes interrupted completions on demand.
func (h *RideHandler) ResumeCompletions(c *gin.Context) {
	resumed, err := h.settlementService.ResumePending(c.Request.Context(), h.resumeAfter)
	if err != nil && resumed == 0 {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Pending completions resumed", gin.H{"resumed": resumed})
}

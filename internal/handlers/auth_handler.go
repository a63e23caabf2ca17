package handlers

import (
	"greenride/internal/services"
	"greenride/internal/utils"
	"greenride/internal/validators"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var request validators.RegisterRequest
	if !bindJSON(c, &request) {
		return
	}

	response, err := h.authService.Register(c.Request.Context(), &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "User registered successfully", response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var request validators.LoginRequest
	if !bindJSON(c, &request) {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", response)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, ok := pathObjectID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", user)
}

func (h *AuthHandler) RateUser(c *gin.Context) {
	raterID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := pathObjectID(c, "id", "user")
	if !ok {
		return
	}

	var request validators.RateUserRequest
	if !bindJSON(c, &request) {
		return
	}

	user, err := h.authService.RateUser(c.Request.Context(), raterID, userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Rating submitted successfully", user)
}

// AddGreenPoints is the operator grant; the route is admin-only.
func (h *AuthHandler) AddGreenPoints(c *gin.Context) {
	userID, ok := pathObjectID(c, "id", "user")
	if !ok {
		return
	}

	var request validators.GreenPointsRequest
	if !bindJSON(c, &request) {
		return
	}

	user, err := h.authService.AddGreenPoints(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Green points added successfully", user)
}

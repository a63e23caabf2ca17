package handlers

import (
	"greenride/internal/services"
	"greenride/internal/utils"
	"greenride/internal/validators"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService    services.SettingsService
	transactionService services.TransactionService
}

func NewSettingsHandler(settingsService services.SettingsService, transactionService services.TransactionService) *SettingsHandler {
	return &SettingsHandler{
		settingsService:    settingsService,
		transactionService: transactionService,
	}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	settings, err := h.settingsService.GetSettings(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Settings retrieved successfully", settings)
}

// UpdateSettings accepts a partial settings document; nested objects are
// merged into the stored values.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var patch map[string]interface{}
	if !bindJSON(c, &patch) {
		return
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), userID, patch)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Settings updated successfully", settings)
}

func (h *SettingsHandler) GetGreenStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.transactionService.GetGreenStats(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Green stats retrieved successfully", stats)
}

func (h *SettingsHandler) UpdateGreenGoals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.GreenGoalsRequest
	if !bindJSON(c, &request) {
		return
	}

	settings, err := h.settingsService.UpdateGreenGoals(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Green goals updated successfully", settings.GreenGoals)
}

func (h *SettingsHandler) AddAchievement(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.AchievementRequest
	if !bindJSON(c, &request) {
		return
	}

	settings, err := h.settingsService.AddAchievement(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Achievement added successfully", settings.Achievements)
}

func (h *SettingsHandler) ResetSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	settings, err := h.settingsService.ResetSettings(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Settings reset to defaults", settings)
}

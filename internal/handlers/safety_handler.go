package handlers

import (
	"greenride/internal/models"
	"greenride/internal/services"
	"greenride/internal/utils"
	"greenride/internal/validators"

	"github.com/gin-gonic/gin"
)

type SafetyHandler struct {
	safetyService services.SafetyService
}

func NewSafetyHandler(safetyService services.SafetyService) *SafetyHandler {
	return &SafetyHandler{safetyService: safetyService}
}

func (h *SafetyHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	settings, err := h.safetyService.GetSettings(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Safety settings retrieved successfully", settings)
}

func (h *SafetyHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var prefs models.SafetyPreferences
	if !bindJSON(c, &prefs) {
		return
	}

	settings, err := h.safetyService.UpdateSettings(c.Request.Context(), userID, &prefs)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Safety settings updated successfully", settings)
}

func (h *SafetyHandler) AddEmergencyContact(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.EmergencyContactRequest
	if !bindJSON(c, &request) {
		return
	}

	contact, err := h.safetyService.AddEmergencyContact(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Emergency contact added successfully", contact)
}

func (h *SafetyHandler) RemoveEmergencyContact(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	contactID, ok := pathObjectID(c, "id", "contact")
	if !ok {
		return
	}

	if err := h.safetyService.RemoveEmergencyContact(c.Request.Context(), userID, contactID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency contact removed successfully", nil)
}

func (h *SafetyHandler) ReportIncident(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.IncidentReportRequest
	if !bindJSON(c, &request) {
		return
	}

	report, err := h.safetyService.ReportIncident(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Incident reported successfully", report)
}

func (h *SafetyHandler) ListIncidents(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	reports, err := h.safetyService.ListIncidents(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Incident reports retrieved successfully", reports, &utils.Meta{Count: len(reports)})
}

func (h *SafetyHandler) UpdateSafetyScore(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	score, err := h.safetyService.UpdateSafetyScore(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Safety score updated", gin.H{"safety_score": score})
}

func (h *SafetyHandler) GetStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.safetyService.GetStats(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Safety stats retrieved successfully", stats)
}

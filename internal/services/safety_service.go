package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"
	"greenride/internal/validators"
	"greenride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SafetyService interface {
	GetSettings(ctx context.Context, userID primitive.ObjectID) (*models.SafetySettings, error)
	UpdateSettings(ctx context.Context, userID primitive.ObjectID, prefs *models.SafetyPreferences) (*models.SafetySettings, error)

	AddEmergencyContact(ctx context.Context, userID primitive.ObjectID, request *validators.EmergencyContactRequest) (*models.EmergencyContact, error)
	RemoveEmergencyContact(ctx context.Context, userID, contactID primitive.ObjectID) error

	ReportIncident(ctx context.Context, userID primitive.ObjectID, request *validators.IncidentReportRequest) (*models.IncidentReport, error)
	ListIncidents(ctx context.Context, userID primitive.ObjectID) ([]*models.IncidentReport, error)

	UpdateSafetyScore(ctx context.Context, userID primitive.ObjectID) (float64, error)
	RecordPositiveFeedback(ctx context.Context, userID primitive.ObjectID) error
	GetStats(ctx context.Context, userID primitive.ObjectID) (*models.SafetyStats, error)
}

type safetyService struct {
	safetyRepo interfaces.SafetyRepository
	logger     *logger.Logger
}

func NewSafetyService(safetyRepo interfaces.SafetyRepository, logger *logger.Logger) SafetyService {
	return &safetyService{
		safetyRepo: safetyRepo,
		logger:     logger,
	}
}

func (s *safetyService) GetSettings(ctx context.Context, userID primitive.ObjectID) (*models.SafetySettings, error) {
	settings, err := s.safetyRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, storeFailure("safety settings", "get safety settings", err)
	}
	return settings, nil
}

func (s *safetyService) UpdateSettings(ctx context.Context, userID primitive.ObjectID, prefs *models.SafetyPreferences) (*models.SafetySettings, error) {
	if prefs == nil {
		return nil, utils.NewValidationError("safety preferences are required")
	}

	settings, err := s.safetyRepo.UpdatePreferences(ctx, userID, prefs)
	if err != nil {
		return nil, storeFailure("safety settings", "update safety settings", err)
	}
	return settings, nil
}

func (s *safetyService) AddEmergencyContact(ctx context.Context, userID primitive.ObjectID, request *validators.EmergencyContactRequest) (*models.EmergencyContact, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}

	// The conditional push needs the document to exist.
	if _, err := s.safetyRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, storeFailure("safety settings", "get safety settings", err)
	}

	contact := &models.EmergencyContact{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(request.Name),
		Phone:        strings.TrimSpace(request.Phone),
		Relationship: strings.TrimSpace(request.Relationship),
	}

	_, err := s.safetyRepo.AddEmergencyContact(ctx, userID, contact, utils.MaxEmergencyContacts)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, storeFailure("safety settings", "add emergency contact", err)
	}

	// The push was refused; report why.
	settings, err := s.safetyRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, storeFailure("safety settings", "get safety settings", err)
	}
	if len(settings.EmergencyContacts) >= utils.MaxEmergencyContacts {
		return nil, utils.NewConstraintError("maximum 5 emergency contacts allowed")
	}
	for _, existing := range settings.EmergencyContacts {
		if existing.Phone == contact.Phone || strings.EqualFold(existing.Name, contact.Name) {
			return nil, utils.NewConflictError("contact already exists")
		}
	}
	return nil, utils.NewConflictError("emergency contacts changed, retry")
}

func (s *safetyService) RemoveEmergencyContact(ctx context.Context, userID, contactID primitive.ObjectID) error {
	if _, err := s.safetyRepo.RemoveEmergencyContact(ctx, userID, contactID); err != nil {
		return storeFailure("emergency contact", "remove emergency contact", err)
	}
	return nil
}

func (s *safetyService) ReportIncident(ctx context.Context, userID primitive.ObjectID, request *validators.IncidentReportRequest) (*models.IncidentReport, error) {
	if err := validators.ValidateIncidentReport(request).AsError(); err != nil {
		return nil, err
	}

	report := &models.IncidentReport{
		ReporterID:  userID,
		Type:        request.Type,
		Severity:    request.Severity,
		Description: validators.SanitizeInput(request.Description),
		Status:      models.IncidentStatusPending,
	}
	if request.RideID != "" {
		rideID, err := parseObjectID("ride_id", request.RideID)
		if err != nil {
			return nil, err
		}
		report.RideID = &rideID
	}

	if err := s.safetyRepo.CreateIncident(ctx, report); err != nil {
		return nil, storeFailure("incident report", "create incident report", err)
	}

	if report.Severity.IsSerious() {
		if _, err := s.safetyRepo.IncrementCounters(ctx, userID, 0, 0, 1); err != nil {
			return nil, storeFailure("safety settings", "count safety report", err)
		}
	}

	s.logger.WithUserID(userID).WithFields(map[string]interface{}{
		"report_id": report.ID.Hex(),
		"type":      report.Type,
		"severity":  report.Severity,
	}).Warn("Incident reported")
	return report, nil
}

func (s *safetyService) ListIncidents(ctx context.Context, userID primitive.ObjectID) ([]*models.IncidentReport, error) {
	reports, err := s.safetyRepo.ListIncidents(ctx, userID)
	if err != nil {
		return nil, storeFailure("incident report", "list incident reports", err)
	}
	return reports, nil
}

func (s *safetyService) UpdateSafetyScore(ctx context.Context, userID primitive.ObjectID) (float64, error) {
	settings, err := s.safetyRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, storeFailure("safety settings", "get safety settings", err)
	}

	score := SafetyScore(settings.SafetyReports, settings.PositiveFeedback, settings.TotalRides)
	if _, err := s.safetyRepo.SetSafetyScore(ctx, userID, score); err != nil {
		return 0, storeFailure("safety settings", "update safety score", err)
	}
	return score, nil
}

func (s *safetyService) RecordPositiveFeedback(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.safetyRepo.IncrementCounters(ctx, userID, 1, 1, 0); err != nil {
		return storeFailure("safety settings", "record positive feedback", err)
	}
	return nil
}

func (s *safetyService) GetStats(ctx context.Context, userID primitive.ObjectID) (*models.SafetyStats, error) {
	settings, err := s.safetyRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, storeFailure("safety settings", "get safety settings", err)
	}

	// New users start at 100%.
	rate := 100.0
	if settings.TotalRides > 0 {
		rate = math.Round(float64(settings.PositiveFeedback) / float64(settings.TotalRides) * 100)
	}

	return &models.SafetyStats{
		SafetyScore:          settings.SafetyScore,
		TotalRides:           settings.TotalRides,
		PositiveFeedback:     settings.PositiveFeedback,
		PositiveFeedbackRate: rate,
		SafetyReports:        settings.SafetyReports,
		EmergencyContacts:    len(settings.EmergencyContacts),
	}, nil
}

// SafetyScore starts at 5, loses half a point per serious report, and is
// scaled by the positive feedback rate once the user has rides. The result
// is clamped to [0,5] with one decimal.
func SafetyScore(reports, positive, totalRides int) float64 {
	score := utils.MaxSafetyScore - float64(reports)*utils.SafetyReportPenalty
	if totalRides > 0 {
		score *= float64(positive) / float64(totalRides)
	}
	score = math.Max(0, math.Min(utils.MaxSafetyScore, score))
	return math.Round(score*10) / 10
}

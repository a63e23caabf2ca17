package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"
	"greenride/internal/validators"
	"greenride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// editableSections are the top-level settings keys a user may change.
var editableSections = map[string]bool{
	"vehicle_preferences": true,
	"notifications":       true,
	"ride_preferences":    true,
	"privacy":             true,
	"app_preferences":     true,
	"green_goals":         true,
}

type SettingsService interface {
	GetSettings(ctx context.Context, userID primitive.ObjectID) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID primitive.ObjectID, patch map[string]interface{}) (*models.UserSettings, error)
	UpdateGreenGoals(ctx context.Context, userID primitive.ObjectID, request *validators.GreenGoalsRequest) (*models.UserSettings, error)
	AddAchievement(ctx context.Context, userID primitive.ObjectID, request *validators.AchievementRequest) (*models.UserSettings, error)
	ResetSettings(ctx context.Context, userID primitive.ObjectID) (*models.UserSettings, error)
}

type settingsService struct {
	settingsRepo interfaces.SettingsRepository
	logger       *logger.Logger
	now          func() time.Time
}

func NewSettingsService(settingsRepo interfaces.SettingsRepository, logger *logger.Logger) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *settingsService) GetSettings(ctx context.Context, userID primitive.ObjectID) (*models.UserSettings, error) {
	defaults := models.DefaultUserSettings(userID)
	settings, err := s.settingsRepo.GetOrCreate(ctx, &defaults)
	if err != nil {
		return nil, storeFailure("settings", "get settings", err)
	}
	return settings, nil
}

// UpdateSettings deep-merges patch into the stored sections. Keys missing
// from patch keep their current value.
func (s *settingsService) UpdateSettings(ctx context.Context, userID primitive.ObjectID, patch map[string]interface{}) (*models.UserSettings, error) {
	if len(patch) == 0 {
		return nil, utils.NewValidationError("no settings to update")
	}
	for key := range patch {
		if !editableSections[key] {
			return nil, utils.NewValidationError("unknown settings section: " + key)
		}
	}

	current, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged, err := mergeSettings(current, patch)
	if err != nil {
		return nil, err
	}
	if err := validators.ValidateStruct(merged).AsError(); err != nil {
		return nil, err
	}

	sections := make(map[string]interface{}, len(patch))
	for key := range patch {
		sections[key] = sectionValue(merged, key)
	}

	settings, err := s.settingsRepo.UpdateSections(ctx, userID, sections)
	if err != nil {
		return nil, storeFailure("settings", "update settings", err)
	}
	return settings, nil
}

func (s *settingsService) UpdateGreenGoals(ctx context.Context, userID primitive.ObjectID, request *validators.GreenGoalsRequest) (*models.UserSettings, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}

	current, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	goals := current.GreenGoals
	if request.MonthlyCO2Target != nil {
		goals.MonthlyCO2Target = *request.MonthlyCO2Target
	}
	if request.MonthlyRidesTarget != nil {
		goals.MonthlyRidesTarget = *request.MonthlyRidesTarget
	}
	if request.GreenPointsTarget != nil {
		goals.GreenPointsTarget = *request.GreenPointsTarget
	}

	settings, err := s.settingsRepo.UpdateSections(ctx, userID, map[string]interface{}{"green_goals": goals})
	if err != nil {
		return nil, storeFailure("settings", "update green goals", err)
	}
	return settings, nil
}

func (s *settingsService) AddAchievement(ctx context.Context, userID primitive.ObjectID, request *validators.AchievementRequest) (*models.UserSettings, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}

	// Achievements append to an existing document.
	if _, err := s.GetSettings(ctx, userID); err != nil {
		return nil, err
	}

	achievement := &models.Achievement{
		Type:        strings.TrimSpace(request.Type),
		Name:        strings.TrimSpace(request.Name),
		Description: validators.SanitizeInput(request.Description),
		Icon:        strings.TrimSpace(request.Icon),
		DateEarned:  s.now(),
	}

	settings, err := s.settingsRepo.AddAchievement(ctx, userID, achievement)
	if errors.Is(err, interfaces.ErrDuplicate) {
		return nil, utils.NewConflictError("achievement already earned")
	}
	if err != nil {
		return nil, storeFailure("settings", "add achievement", err)
	}

	s.logger.WithUserID(userID).WithField("achievement", achievement.Type).Info("Achievement earned")
	return settings, nil
}

// ResetSettings restores every editable section. Earned achievements stay.
func (s *settingsService) ResetSettings(ctx context.Context, userID primitive.ObjectID) (*models.UserSettings, error) {
	defaults := models.DefaultUserSettings(userID)
	settings, err := s.settingsRepo.Reset(ctx, &defaults)
	if err != nil {
		return nil, storeFailure("settings", "reset settings", err)
	}
	return settings, nil
}

// mergeSettings overlays patch onto current through their JSON forms so
// nested objects merge field by field.
func mergeSettings(current *models.UserSettings, patch map[string]interface{}) (*models.UserSettings, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, utils.NewDependencyError("failed to encode settings", err)
	}
	var base map[string]interface{}
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, utils.NewDependencyError("failed to decode settings", err)
	}

	deepMerge(base, patch)

	raw, err = json.Marshal(base)
	if err != nil {
		return nil, utils.NewValidationError("invalid settings")
	}
	merged := &models.UserSettings{}
	if err := json.Unmarshal(raw, merged); err != nil {
		return nil, utils.NewValidationError("invalid settings: " + err.Error())
	}
	return merged, nil
}

func deepMerge(dst, src map[string]interface{}) {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]interface{})
		dstMap, dstIsMap := dst[key].(map[string]interface{})
		if srcIsMap && dstIsMap {
			deepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
}

func sectionValue(settings *models.UserSettings, key string) interface{} {
	switch key {
	case "vehicle_preferences":
		return settings.VehiclePreferences
	case "notifications":
		return settings.Notifications
	case "ride_preferences":
		return settings.RidePreferences
	case "privacy":
		return settings.Privacy
	case "app_preferences":
		return settings.AppPreferences
	case "green_goals":
		return settings.GreenGoals
	}
	return nil
}

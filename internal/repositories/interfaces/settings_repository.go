package interfaces

import (
	"context"

	"greenride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SettingsRepository interface {
	// GetOrCreate returns the stored settings or inserts defaults in a
	// single upsert.
	GetOrCreate(ctx context.Context, defaults *models.UserSettings) (*models.UserSettings, error)
	Get(ctx context.Context, userID primitive.ObjectID) (*models.UserSettings, error)
	// UpdateSections overwrites the named top-level sections.
	UpdateSections(ctx context.Context, userID primitive.ObjectID, sections map[string]interface{}) (*models.UserSettings, error)
	// AddAchievement appends a unless one of the same type exists.
	// ErrDuplicate in that case.
	AddAchievement(ctx context.Context, userID primitive.ObjectID, a *models.Achievement) (*models.UserSettings, error)
	// Reset overwrites every user-editable section with defaults.
	Reset(ctx context.Context, defaults *models.UserSettings) (*models.UserSettings, error)
}

package interfaces

import (
	"context"

	"greenride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SafetyRepository interface {
	// GetOrCreate returns the user's settings, inserting defaults when the
	// user has none.
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.SafetySettings, error)
	UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs *models.SafetyPreferences) (*models.SafetySettings, error)

	// AddEmergencyContact appends contact unless the list already holds max
	// entries or a contact with the same phone or name (case-insensitive).
	// ErrNotFound means a precondition failed.
	AddEmergencyContact(ctx context.Context, userID primitive.ObjectID, contact *models.EmergencyContact, max int) (*models.SafetySettings, error)
	RemoveEmergencyContact(ctx context.Context, userID, contactID primitive.ObjectID) (*models.SafetySettings, error)

	// IncrementCounters adds to total_rides, positive_feedback and
	// safety_reports, creating the settings document if needed.
	IncrementCounters(ctx context.Context, userID primitive.ObjectID, rides, positive, reports int) (*models.SafetySettings, error)
	SetSafetyScore(ctx context.Context, userID primitive.ObjectID, score float64) (*models.SafetySettings, error)

	CreateIncident(ctx context.Context, report *models.IncidentReport) error
	ListIncidents(ctx context.Context, reporterID primitive.ObjectID) ([]*models.IncidentReport, error)
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IncidentType string
type IncidentSeverity string
type IncidentStatus string

const (
	IncidentHarassment      IncidentType = "harassment"
	IncidentRecklessDriving IncidentType = "reckless-driving"
	IncidentVehicleIssue    IncidentType = "vehicle-issue"
	IncidentRouteDeviation  IncidentType = "route-deviation"
	IncidentOther           IncidentType = "other"

	SeverityLow       IncidentSeverity = "low"
	SeverityMedium    IncidentSeverity = "medium"
	SeverityHigh      IncidentSeverity = "high"
	SeverityEmergency IncidentSeverity = "emergency"

	IncidentStatusPending       IncidentStatus = "pending"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusResolved      IncidentStatus = "resolved"
	IncidentStatusDismissed     IncidentStatus = "dismissed"
)

func (t IncidentType) IsValid() bool {
	switch t {
	case IncidentHarassment, IncidentRecklessDriving, IncidentVehicleIssue,
		IncidentRouteDeviation, IncidentOther:
		return true
	}
	return false
}

func (s IncidentSeverity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityEmergency:
		return true
	}
	return false
}

// IsSerious severities count against the safety record of the reporter's
// profile.
func (s IncidentSeverity) IsSerious() bool {
	return s == SeverityHigh || s == SeverityEmergency
}

type EmergencyContact struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	Name         string             `json:"name" bson:"name"`
	Phone        string             `json:"phone" bson:"phone"`
	Relationship string             `json:"relationship" bson:"relationship"`
	AddedAt      time.Time          `json:"added_at" bson:"added_at"`
}

type SafetySettings struct {
	ID                        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID                    primitive.ObjectID `json:"user_id" bson:"user_id"`
	EmergencyContacts         []EmergencyContact `json:"emergency_contacts" bson:"emergency_contacts"`
	LiveTracking              bool               `json:"live_tracking" bson:"live_tracking"`
	SafetyAlerts              bool               `json:"safety_alerts" bson:"safety_alerts"`
	ShareLocationWithContacts bool               `json:"share_location_with_contacts" bson:"share_location_with_contacts"`
	AutoNotifyOnRideStart     bool               `json:"auto_notify_on_ride_start" bson:"auto_notify_on_ride_start"`
	SafetyScore               float64            `json:"safety_score" bson:"safety_score"`
	TotalRides                int                `json:"total_rides" bson:"total_rides"`
	SafetyReports             int                `json:"safety_reports" bson:"safety_reports"`
	PositiveFeedback          int                `json:"positive_feedback" bson:"positive_feedback"`
	CreatedAt                 time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt                 time.Time          `json:"updated_at" bson:"updated_at"`
}

// SafetyPreferences is the user-editable part of SafetySettings. Nil fields
// are left unchanged on update.
type SafetyPreferences struct {
	LiveTracking              *bool `json:"live_tracking,omitempty" bson:"live_tracking,omitempty"`
	SafetyAlerts              *bool `json:"safety_alerts,omitempty" bson:"safety_alerts,omitempty"`
	ShareLocationWithContacts *bool `json:"share_location_with_contacts,omitempty" bson:"share_location_with_contacts,omitempty"`
	AutoNotifyOnRideStart     *bool `json:"auto_notify_on_ride_start,omitempty" bson:"auto_notify_on_ride_start,omitempty"`
}

// DefaultSafetySettings returns the settings a user has before their
// document exists. It has no side effects.
func DefaultSafetySettings(userID primitive.ObjectID) SafetySettings {
	return SafetySettings{
		UserID:                    userID,
		EmergencyContacts:         []EmergencyContact{},
		LiveTracking:              true,
		SafetyAlerts:              true,
		ShareLocationWithContacts: true,
		AutoNotifyOnRideStart:     true,
		SafetyScore:               5.0,
	}
}

type IncidentReport struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ReporterID  primitive.ObjectID  `json:"reporter_id" bson:"reporter_id"`
	RideID      *primitive.ObjectID `json:"ride_id,omitempty" bson:"ride_id,omitempty"`
	Type        IncidentType        `json:"type" bson:"type"`
	Severity    IncidentSeverity    `json:"severity" bson:"severity"`
	Description string              `json:"description" bson:"description"`
	Status      IncidentStatus      `json:"status" bson:"status"`
	AdminNotes  string              `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

type SafetyStats struct {
	SafetyScore          float64 `json:"safety_score"`
	TotalRides           int     `json:"total_rides"`
	PositiveFeedback     int     `json:"positive_feedback"`
	PositiveFeedbackRate float64 `json:"positive_feedback_rate"`
	SafetyReports        int     `json:"safety_reports"`
	EmergencyContacts    int     `json:"emergency_contacts"`
}

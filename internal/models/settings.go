package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehiclePreferences struct {
	Electric bool `json:"electric" bson:"electric"`
	Hybrid   bool `json:"hybrid" bson:"hybrid"`
	Bike     bool `json:"bike" bson:"bike"`
	Public   bool `json:"public" bson:"public"`
}

type NotificationPreferences struct {
	EcoRides     bool `json:"eco_rides" bson:"eco_rides"`
	CO2Report    bool `json:"co2_report" bson:"co2_report"`
	Achievements bool `json:"achievements" bson:"achievements"`
	Challenges   bool `json:"challenges" bson:"challenges"`
}

type RidePreferences struct {
	MaxDistance   string `json:"max_distance" bson:"max_distance" validate:"omitempty,oneof=10 25 50 100 unlimited"`
	PreferredTime string `json:"preferred_time" bson:"preferred_time" validate:"omitempty,oneof=morning afternoon evening night anytime"`
}

type PrivacyPreferences struct {
	ProfileVisibility string `json:"profile_visibility" bson:"profile_visibility" validate:"omitempty,oneof=public eco-community connections private"`
	LocationSharing   bool   `json:"location_sharing" bson:"location_sharing"`
}

type AppPreferences struct {
	Theme        string `json:"theme" bson:"theme" validate:"omitempty,oneof=green blue dark"`
	DistanceUnit string `json:"distance_unit" bson:"distance_unit" validate:"omitempty,oneof=km mi"`
	Currency     string `json:"currency" bson:"currency" validate:"omitempty,currency_code"`
}

type GreenGoals struct {
	MonthlyCO2Target   float64 `json:"monthly_co2_target" bson:"monthly_co2_target" validate:"gte=0"`
	MonthlyRidesTarget int     `json:"monthly_rides_target" bson:"monthly_rides_target" validate:"gte=0"`
	GreenPointsTarget  int     `json:"green_points_target" bson:"green_points_target" validate:"gte=0"`
}

type Achievement struct {
	Type        string    `json:"type" bson:"type" validate:"required"`
	Name        string    `json:"name" bson:"name" validate:"required"`
	Description string    `json:"description" bson:"description" validate:"required"`
	Icon        string    `json:"icon" bson:"icon" validate:"required"`
	DateEarned  time.Time `json:"date_earned" bson:"date_earned"`
}

type UserSettings struct {
	ID                 primitive.ObjectID      `json:"id" bson:"_id,omitempty"`
	UserID             primitive.ObjectID      `json:"user_id" bson:"user_id"`
	VehiclePreferences VehiclePreferences      `json:"vehicle_preferences" bson:"vehicle_preferences"`
	Notifications      NotificationPreferences `json:"notifications" bson:"notifications"`
	RidePreferences    RidePreferences         `json:"ride_preferences" bson:"ride_preferences"`
	Privacy            PrivacyPreferences      `json:"privacy" bson:"privacy"`
	AppPreferences     AppPreferences          `json:"app_preferences" bson:"app_preferences"`
	GreenGoals         GreenGoals              `json:"green_goals" bson:"green_goals"`
	Achievements       []Achievement           `json:"achievements" bson:"achievements"`
	CreatedAt          time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at" bson:"updated_at"`
}

func DefaultGreenGoals() GreenGoals {
	return GreenGoals{
		MonthlyCO2Target:   50,
		MonthlyRidesTarget: 20,
		GreenPointsTarget:  1000,
	}
}

// DefaultUserSettings is the canonical settings value for a user who has
// never saved any. Reads return it; only the upsert in the repository
// persists it.
func DefaultUserSettings(userID primitive.ObjectID) UserSettings {
	return UserSettings{
		UserID: userID,
		VehiclePreferences: VehiclePreferences{
			Electric: true,
			Hybrid:   true,
		},
		Notifications: NotificationPreferences{
			EcoRides:     true,
			CO2Report:    true,
			Achievements: true,
		},
		RidePreferences: RidePreferences{
			MaxDistance:   "25",
			PreferredTime: "evening",
		},
		Privacy: PrivacyPreferences{
			ProfileVisibility: "eco-community",
			LocationSharing:   true,
		},
		AppPreferences: AppPreferences{
			Theme:        "green",
			DistanceUnit: "km",
			Currency:     "INR",
		},
		GreenGoals:   DefaultGreenGoals(),
		Achievements: []Achievement{},
	}
}

// GreenStats summarises completed transactions against a user's goals.
type GreenStats struct {
	Monthly  GreenPeriodStats `json:"monthly_stats"`
	AllTime  GreenPeriodStats `json:"all_time_stats"`
	Goals    GreenGoals       `json:"goals"`
	Progress GreenProgress    `json:"progress"`
}

type GreenPeriodStats struct {
	CO2SavedKg        float64    `json:"co2_saved_kg" bson:"co2_saved_kg"`
	RidesCompleted    int        `json:"rides_completed" bson:"rides_completed"`
	GreenPointsEarned int        `json:"green_points_earned" bson:"green_points_earned"`
	MoneySpent        float64    `json:"money_spent" bson:"money_spent"`
	MemberSince       *time.Time `json:"member_since,omitempty" bson:"member_since,omitempty"`
}

type GreenProgress struct {
	CO2Progress    float64 `json:"co2_progress"`
	RidesProgress  float64 `json:"rides_progress"`
	PointsProgress float64 `json:"points_progress"`
}
